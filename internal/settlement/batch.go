package settlement

import "time"

// Mutation intents staged by the service and applied by the store in a single
// atomic commit. The service never writes through any other path, so each
// request branch produces exactly one commit.

type OrderUpdate struct {
	OrderID           string
	PaymentStatus     PaymentStatus
	RazorpayPaymentID string
	PaidAt            *time.Time
	PaymentError      string
}

type StockDecrement struct {
	ProductID string
	// Quantity is the ordered quantity aggregated across every order in the
	// request that references this product.
	Quantity int
}

type CouponIncrement struct {
	CouponID string
}

// PaymentEvent is an append-only audit record of a settlement outcome,
// written in the same commit as the outcome itself.
type PaymentEvent struct {
	ID                string
	RazorpayOrderID   string
	RazorpayPaymentID string
	OrderIDs          []string
	Status            PaymentStatus
	Error             string
	CreatedAt         time.Time
}

// Batch accumulates mutation intents for one atomic commit.
type Batch struct {
	OrderUpdates     []OrderUpdate
	StockDecrements  []StockDecrement
	CouponIncrements []CouponIncrement
	// ClearCartUserID marks every cart item owned by this user for deletion.
	// Empty means no cart cleanup.
	ClearCartUserID string
	Events          []PaymentEvent
}

func (b *Batch) UpdateOrder(u OrderUpdate) {
	b.OrderUpdates = append(b.OrderUpdates, u)
}

func (b *Batch) DecrementStock(productID string, quantity int) {
	b.StockDecrements = append(b.StockDecrements, StockDecrement{ProductID: productID, Quantity: quantity})
}

func (b *Batch) IncrementCouponUse(couponID string) {
	b.CouponIncrements = append(b.CouponIncrements, CouponIncrement{CouponID: couponID})
}

func (b *Batch) ClearCart(userID string) {
	b.ClearCartUserID = userID
}

func (b *Batch) RecordPayment(ev PaymentEvent) {
	b.Events = append(b.Events, ev)
}
