// Package store implements the settlement document-store collaborator on
// PostgreSQL. All staged mutations of a settlement batch are applied inside
// a single transaction, so a commit is all-or-nothing.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/checkout-service/internal/settlement"
)

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetOrdersByIDs(ctx context.Context, ids []string) (map[string]settlement.Order, error) {
	orderQuery := `
		SELECT id, user_id, payment_status, COALESCE(coupon_code, ''), COALESCE(razorpay_payment_id, ''), paid_at, COALESCE(payment_error, '')
		FROM orders
		WHERE id = ANY($1)
	`

	rows, err := p.db.Query(ctx, orderQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make(map[string]settlement.Order)
	for rows.Next() {
		var ord settlement.Order
		err := rows.Scan(
			&ord.ID,
			&ord.UserID,
			&ord.PaymentStatus,
			&ord.CouponCode,
			&ord.RazorpayPaymentID,
			&ord.PaidAt,
			&ord.PaymentError,
		)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan order: %w", err)
		}
		orders[ord.ID] = ord
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemQuery := `
		SELECT order_id, product_id, quantity
		FROM order_items
		WHERE order_id = ANY($1)
	`

	itemRows, err := p.db.Query(ctx, itemQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var item settlement.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("store: failed to scan order item: %w", err)
		}
		if ord, ok := orders[orderID]; ok {
			ord.Items = append(ord.Items, item)
			orders[orderID] = ord
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating order items: %w", err)
	}

	return orders, nil
}

func (p *Postgres) GetProductsByIDs(ctx context.Context, ids []string) (map[string]settlement.Product, error) {
	query := `
		SELECT id, stock_count
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]settlement.Product)
	for rows.Next() {
		var prod settlement.Product
		if err := rows.Scan(&prod.ID, &prod.StockCount); err != nil {
			return nil, fmt.Errorf("store: failed to scan product: %w", err)
		}
		products[prod.ID] = prod
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating products: %w", err)
	}

	return products, nil
}

func (p *Postgres) GetCouponByCode(ctx context.Context, code string) (*settlement.Coupon, error) {
	query := `
		SELECT id, code, used_count
		FROM coupons
		WHERE code = $1
		LIMIT 1
	`

	var coupon settlement.Coupon
	err := p.db.QueryRow(ctx, query, code).Scan(&coupon.ID, &coupon.Code, &coupon.UsedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: failed to select coupon by code %q: %w", code, err)
	}

	return &coupon, nil
}

// Commit applies every mutation staged in the batch inside one transaction.
// An order update whose row is no longer awaiting payment aborts the whole
// transaction with settlement.ErrAlreadySettled, which is what prevents a
// concurrent duplicate verification from decrementing stock twice.
func (p *Postgres) Commit(ctx context.Context, batch *settlement.Batch) (err error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Msg("store: failed to rollback settlement transaction")
			}
		}
	}()

	orderQuery := `
		UPDATE orders
		SET payment_status = $1,
		    razorpay_payment_id = NULLIF($2, ''),
		    paid_at = $3,
		    payment_error = NULLIF($4, ''),
		    updated_at = now()
		WHERE id = $5 AND payment_status = 'awaiting'
	`
	for _, u := range batch.OrderUpdates {
		cmdTag, execErr := tx.Exec(ctx, orderQuery,
			u.PaymentStatus.String(),
			u.RazorpayPaymentID,
			u.PaidAt,
			u.PaymentError,
			u.OrderID,
		)
		if execErr != nil {
			err = fmt.Errorf("store: failed to update order %s: %w", u.OrderID, classify(execErr))
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			err = fmt.Errorf("store: order %s: %w", u.OrderID, settlement.ErrAlreadySettled)
			return err
		}
	}

	// GREATEST keeps the decrement and the floor clamp in one statement, so
	// stock can never go negative regardless of interleaving.
	stockQuery := `
		UPDATE products
		SET stock_count = GREATEST(0, stock_count - $1)
		WHERE id = $2
	`
	for _, d := range batch.StockDecrements {
		if _, execErr := tx.Exec(ctx, stockQuery, d.Quantity, d.ProductID); execErr != nil {
			err = fmt.Errorf("store: failed to decrement stock for product %s: %w", d.ProductID, classify(execErr))
			return err
		}
	}

	couponQuery := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1
	`
	for _, c := range batch.CouponIncrements {
		if _, execErr := tx.Exec(ctx, couponQuery, c.CouponID); execErr != nil {
			err = fmt.Errorf("store: failed to increment coupon %s usage: %w", c.CouponID, classify(execErr))
			return err
		}
	}

	if batch.ClearCartUserID != "" {
		cartQuery := `DELETE FROM cart_items WHERE user_id = $1`
		if _, execErr := tx.Exec(ctx, cartQuery, batch.ClearCartUserID); execErr != nil {
			err = fmt.Errorf("store: failed to clear cart for user %s: %w", batch.ClearCartUserID, classify(execErr))
			return err
		}
	}

	eventQuery := `
		INSERT INTO payment_events (id, razorpay_order_id, razorpay_payment_id, order_ids, status, error_text, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`
	for _, ev := range batch.Events {
		_, execErr := tx.Exec(ctx, eventQuery,
			ev.ID,
			ev.RazorpayOrderID,
			ev.RazorpayPaymentID,
			ev.OrderIDs,
			ev.Status.String(),
			ev.Error,
			ev.CreatedAt,
		)
		if execErr != nil {
			err = fmt.Errorf("store: failed to insert payment event %s: %w", ev.ID, classify(execErr))
			return err
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = fmt.Errorf("store: failed to commit settlement batch: %w", commitErr)
		return err
	}

	return nil
}

// classify annotates Postgres errors that indicate a violated schema
// constraint rather than plain infrastructure trouble.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return fmt.Errorf("integrity constraint %s violated: %w", pgErr.ConstraintName, err)
	}
	return err
}
