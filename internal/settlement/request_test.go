package settlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/checkout-service/internal/settlement"
)

func TestVerifyRequest_ResolveOrderIDs(t *testing.T) {
	tests := []struct {
		name     string
		orderID  string
		orderIDs []string
		want     []string
	}{
		{
			name:     "multi_shop_form_preferred",
			orderID:  "legacy",
			orderIDs: []string{"order123", "order456"},
			want:     []string{"order123", "order456"},
		},
		{
			name:    "legacy_single_order_form",
			orderID: "order123",
			want:    []string{"order123"},
		},
		{
			name: "neither_form",
			want: nil,
		},
		{
			name:     "blank_entries_dropped",
			orderIDs: []string{" ", "order123", ""},
			want:     []string{"order123"},
		},
		{
			name:    "whitespace_only_single_id",
			orderID: "   ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &settlement.VerifyRequest{OrderID: tt.orderID, OrderIDs: tt.orderIDs}
			assert.Equal(t, tt.want, req.ResolveOrderIDs())
		})
	}
}
