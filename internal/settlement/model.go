package settlement

import "time"

type PaymentStatus string

const (
	StatusAwaiting PaymentStatus = "awaiting"
	StatusPaid     PaymentStatus = "paid"
	StatusFailed   PaymentStatus = "failed"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

// SignatureFailedError is the payment_error text recorded on orders when the
// gateway signature does not match.
const SignatureFailedError = "Signature verification failed"

type OrderItem struct {
	ProductID string `json:"product_id" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

type Order struct {
	ID                string        `json:"id" db:"id"`
	UserID            string        `json:"user_id" db:"user_id"`
	PaymentStatus     PaymentStatus `json:"payment_status" db:"payment_status"`
	Items             []OrderItem   `json:"items" db:"-"`
	CouponCode        string        `json:"coupon_code,omitempty" db:"coupon_code"`
	RazorpayPaymentID string        `json:"razorpay_payment_id,omitempty" db:"razorpay_payment_id"`
	PaidAt            *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	PaymentError      string        `json:"payment_error,omitempty" db:"payment_error"`
}

type Product struct {
	ID         string `json:"id" db:"id"`
	StockCount int    `json:"stock_count" db:"stock_count"`
}

type Coupon struct {
	ID        string `json:"id" db:"id"`
	Code      string `json:"code" db:"code"`
	UsedCount int    `json:"used_count" db:"used_count"`
}

type CartItem struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	ProductID string `json:"product_id" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}
