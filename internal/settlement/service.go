package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoOrderIDs         = errors.New("no order IDs provided")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotOrderOwner      = errors.New("order does not belong to caller")
	ErrAlreadySettled     = errors.New("order already settled")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Store is the document-store collaborator the settlement service writes
// through. Batch getters tolerate missing ids by omitting them from the
// result map. Commit applies every staged mutation atomically or none at
// all; it returns an error wrapping ErrAlreadySettled when a staged order
// update lost a race and the order is no longer awaiting payment.
type Store interface {
	GetOrdersByIDs(ctx context.Context, ids []string) (map[string]Order, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error)
	// GetCouponByCode returns (nil, nil) when no coupon has the given code.
	GetCouponByCode(ctx context.Context, code string) (*Coupon, error)
	Commit(ctx context.Context, batch *Batch) error
}

type Result struct {
	OrderIDs      []string
	PaymentStatus PaymentStatus
}

type Service interface {
	VerifyAndSettle(ctx context.Context, userID string, req *VerifyRequest) (*Result, error)
}

type service struct {
	store  Store
	secret string
}

// NewService wires the settlement workflow against a store and the Razorpay
// key secret used to verify callback signatures.
func NewService(store Store, razorpaySecret string) Service {
	return &service{store: store, secret: razorpaySecret}
}

// VerifyAndSettle validates a payment callback for the given caller and
// settles the referenced orders. Exactly one atomic commit is issued per
// outcome: a signature mismatch commits the orders as failed, a match
// commits order payment, stock decrements, coupon usage and cart cleanup
// together.
func (s *service) VerifyAndSettle(ctx context.Context, userID string, req *VerifyRequest) (*Result, error) {
	orderIDs := req.ResolveOrderIDs()
	if len(orderIDs) == 0 {
		log.Warn().Str("user_id", userID).Msg("service: verify request carried no order ids")
		return nil, ErrNoOrderIDs
	}

	orders, err := s.store.GetOrdersByIDs(ctx, orderIDs)
	if err != nil {
		log.Error().Err(err).Strs("order_ids", orderIDs).Msg("service: failed to fetch orders")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}

	for _, id := range orderIDs {
		ord, ok := orders[id]
		if !ok {
			log.Warn().Str("order_id", id).Msg("service: order not found")
			return nil, fmt.Errorf("service: order %s: %w", id, ErrOrderNotFound)
		}
		if ord.UserID != userID {
			log.Warn().Str("order_id", id).Str("user_id", userID).Msg("service: order ownership mismatch")
			return nil, fmt.Errorf("service: order %s: %w", id, ErrNotOrderOwner)
		}
		if ord.PaymentStatus != StatusAwaiting {
			log.Warn().Str("order_id", id).Str("payment_status", ord.PaymentStatus.String()).Msg("service: order is not awaiting payment")
			return nil, fmt.Errorf("service: order %s is %s: %w", id, ord.PaymentStatus, ErrAlreadySettled)
		}
	}

	if !VerifySignature(s.secret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.settleFailed(ctx, req, orderIDs); err != nil {
			return nil, err
		}
		return nil, ErrVerificationFailed
	}

	if err := s.settlePaid(ctx, userID, req, orderIDs, orders); err != nil {
		return nil, err
	}

	log.Info().
		Strs("order_ids", orderIDs).
		Str("razorpay_payment_id", req.RazorpayPaymentID).
		Msg("service: payment settled")

	return &Result{OrderIDs: orderIDs, PaymentStatus: StatusPaid}, nil
}

// settleFailed durably marks every order in the batch as failed so the
// rejected payment stays visible in the caller's order history.
func (s *service) settleFailed(ctx context.Context, req *VerifyRequest, orderIDs []string) error {
	now := time.Now().UTC()

	batch := &Batch{}
	for _, id := range orderIDs {
		batch.UpdateOrder(OrderUpdate{
			OrderID:       id,
			PaymentStatus: StatusFailed,
			PaymentError:  SignatureFailedError,
		})
	}

	event, err := s.newPaymentEvent(req, orderIDs, StatusFailed, SignatureFailedError, now)
	if err != nil {
		return err
	}
	batch.RecordPayment(event)

	if err := s.store.Commit(ctx, batch); err != nil {
		log.Error().Err(err).Strs("order_ids", orderIDs).Msg("service: failed to commit failure marking")
		return fmt.Errorf("service: failed to mark orders failed: %w", err)
	}

	log.Warn().
		Strs("order_ids", orderIDs).
		Str("razorpay_order_id", req.RazorpayOrderID).
		Msg("service: signature mismatch, orders marked failed")

	return nil
}

func (s *service) settlePaid(ctx context.Context, userID string, req *VerifyRequest, orderIDs []string, orders map[string]Order) error {
	now := time.Now().UTC()
	batch := &Batch{}

	for _, id := range orderIDs {
		paidAt := now
		batch.UpdateOrder(OrderUpdate{
			OrderID:           id,
			PaymentStatus:     StatusPaid,
			RazorpayPaymentID: req.RazorpayPaymentID,
			PaidAt:            &paidAt,
		})
	}

	// Quantities are summed per product across the whole batch before any
	// decrement is staged, so two orders sharing a product decrement it once.
	quantities := make(map[string]int)
	for _, id := range orderIDs {
		for _, item := range orders[id].Items {
			quantities[item.ProductID] += item.Quantity
		}
	}

	productIDs := make([]string, 0, len(quantities))
	for productID := range quantities {
		productIDs = append(productIDs, productID)
	}
	sort.Strings(productIDs)

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		log.Error().Err(err).Strs("product_ids", productIDs).Msg("service: failed to fetch products")
		return fmt.Errorf("service: failed to fetch products: %w", err)
	}

	for _, productID := range productIDs {
		if _, ok := products[productID]; !ok {
			log.Warn().Str("product_id", productID).Msg("service: ordered product no longer exists, skipping stock decrement")
			continue
		}
		batch.DecrementStock(productID, quantities[productID])
	}

	for _, id := range orderIDs {
		code := orders[id].CouponCode
		if code == "" {
			continue
		}
		coupon, err := s.store.GetCouponByCode(ctx, code)
		if err != nil {
			log.Error().Err(err).Str("coupon_code", code).Msg("service: failed to look up coupon")
			return fmt.Errorf("service: failed to look up coupon %q: %w", code, err)
		}
		if coupon == nil {
			log.Debug().Str("coupon_code", code).Str("order_id", id).Msg("service: coupon code not found, skipping")
			continue
		}
		batch.IncrementCouponUse(coupon.ID)
	}

	batch.ClearCart(userID)

	event, err := s.newPaymentEvent(req, orderIDs, StatusPaid, "", now)
	if err != nil {
		return err
	}
	batch.RecordPayment(event)

	if err := s.store.Commit(ctx, batch); err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			log.Warn().Err(err).Strs("order_ids", orderIDs).Msg("service: settlement lost race, order no longer awaiting")
			return err
		}
		log.Error().Err(err).Strs("order_ids", orderIDs).Msg("service: failed to commit settlement")
		return fmt.Errorf("service: failed to commit settlement: %w", err)
	}

	return nil
}

func (s *service) newPaymentEvent(req *VerifyRequest, orderIDs []string, status PaymentStatus, errText string, at time.Time) (PaymentEvent, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("service: failed to generate payment event ID: %w", err)
	}

	return PaymentEvent{
		ID:                id.String(),
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		OrderIDs:          orderIDs,
		Status:            status,
		Error:             errText,
		CreatedAt:         at,
	}, nil
}
