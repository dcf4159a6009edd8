package settlement

import "strings"

// VerifyRequest is the payment callback body posted by the storefront after
// the gateway checkout completes. A single-shop checkout sends order_id, a
// multi-shop checkout sends order_ids; order_ids wins when both are present.
type VerifyRequest struct {
	OrderID           string   `json:"order_id" validate:"omitempty"`
	OrderIDs          []string `json:"order_ids" validate:"omitempty,dive,required"`
	RazorpayOrderID   string   `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string   `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string   `json:"razorpay_signature" validate:"required"`
}

// ResolveOrderIDs normalizes the two request forms into one id list. An empty
// result means the request carried no usable order ids.
func (r *VerifyRequest) ResolveOrderIDs() []string {
	if len(r.OrderIDs) > 0 {
		ids := make([]string, 0, len(r.OrderIDs))
		for _, id := range r.OrderIDs {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}

	if id := strings.TrimSpace(r.OrderID); id != "" {
		return []string{id}
	}

	return nil
}
