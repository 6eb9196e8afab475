package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, order_number, user_id, items, shipping_address, coupon_code,
	coupon_discount_cents, points_redeemed, points_earned,
	subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents, currency,
	stripe_checkout_session_id, stripe_payment_intent_id, failure_reason, status,
	created_at, paid_at, shipped_at, delivered_at, cancelled_at`

// CreateTx inserts the order snapshot inside the checkout transaction.
func (s *OrderStore) CreateTx(ctx context.Context, tx pgx.Tx, order *Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (user_id, items, shipping_address, coupon_code,
			coupon_discount_cents, points_redeemed,
			subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, order_number, created_at
	`
	return tx.QueryRow(ctx, query,
		order.UserID, itemsJSON, addressJSON,
		textOrNull(order.CouponCode), order.CouponDiscountCents, order.PointsRedeemed,
		order.SubtotalCents, order.DiscountCents, order.ShippingCents,
		order.TaxCents, order.TotalCents, order.Currency, string(order.Status)).
		Scan(&order.ID, &order.OrderNumber, &order.CreatedAt)
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(s.pool.QueryRow(ctx, query, orderID))
}

func (s *OrderStore) GetByStripeSessionID(ctx context.Context, sessionID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE stripe_checkout_session_id = $1`
	return scanOrder(s.pool.QueryRow(ctx, query, sessionID))
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// CountNonCancelledByUser counts a user's orders that still count as
// purchases, for first-purchase coupon checks.
func (s *OrderStore) CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT count(*)
		FROM orders
		WHERE user_id = $1 AND status NOT IN ('cancelled', 'expired', 'payment_failed')
	`
	var count int64
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *OrderStore) UpdateStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	query := `UPDATE orders SET stripe_checkout_session_id = $1 WHERE id = $2`
	_, err := s.pool.Exec(ctx, query, sessionID, orderID)
	return err
}

// MarkPaid records a successful payment, including the earned loyalty
// points figure the caller computed.
func (s *OrderStore) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, paymentIntentID string, pointsEarned int64) error {
	query := `
		UPDATE orders
		SET status = $1, stripe_payment_intent_id = $2, points_earned = $3,
			paid_at = NOW(), failure_reason = NULL
		WHERE id = $4 AND status IN ('pending_payment', 'payment_failed')
			AND cancelled_at IS NULL
	`
	cmdTag, err := tx.Exec(ctx, query, StatusPaid, paymentIntentID, pointsEarned, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment/payment_failed", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkShipped(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1, shipped_at = NOW()
		WHERE id = $2 AND status = 'paid'
	`
	cmdTag, err := s.pool.Exec(ctx, query, StatusShipped, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected paid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1, delivered_at = NOW()
		WHERE id = $2 AND status = 'shipped'
	`
	cmdTag, err := s.pool.Exec(ctx, query, StatusDelivered, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected shipped", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkFailedTx fails an order inside the transaction that releases its
// reservations, for checkouts whose payment could never start. The
// cancelled_at timestamp doubles as the released marker: every guard
// that releases or pays an order requires it to be NULL, so nothing is
// released twice and a released order can never be paid.
func (s *OrderStore) MarkFailedTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, reason string) error {
	query := `
		UPDATE orders
		SET status = $1, failure_reason = $3, cancelled_at = NOW()
		WHERE id = $2 AND status = 'pending_payment' AND cancelled_at IS NULL
	`
	cmdTag, err := tx.Exec(ctx, query, StatusPaymentFailed, orderID, reason)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkFailed(ctx context.Context, orderID uuid.UUID, reason string) error {
	query := `
		UPDATE orders
		SET status = $1, failure_reason = $3
		WHERE id = $2 AND status IN ('pending_payment', 'payment_failed')
	`
	cmdTag, err := s.pool.Exec(ctx, query, StatusPaymentFailed, orderID, reason)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment/payment_failed", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkCancelledTx flips the order inside the compensation transaction
// that also restores stock, points and coupon usage.
func (s *OrderStore) MarkCancelledTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status OrderStatus) error {
	if status != StatusCancelled && status != StatusExpired {
		return fmt.Errorf("%w: %s is not a cancellation status", ErrInvalidStatusTransition, status)
	}
	query := `
		UPDATE orders
		SET status = $1, cancelled_at = NOW()
		WHERE id = $2 AND status IN ('pending_payment', 'payment_failed')
			AND cancelled_at IS NULL
	`
	cmdTag, err := tx.Exec(ctx, query, status, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment/payment_failed", ErrInvalidStatusTransition)
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order       Order
		itemsJSON   []byte
		addressJSON []byte
		couponCode  pgtype.Text
		sessionID   pgtype.Text
		intentID    pgtype.Text
		failure     pgtype.Text
		paidAt      pgtype.Timestamptz
		shippedAt   pgtype.Timestamptz
		deliveredAt pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
	)

	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &itemsJSON, &addressJSON, &couponCode,
		&order.CouponDiscountCents, &order.PointsRedeemed, &order.PointsEarned,
		&order.SubtotalCents, &order.DiscountCents, &order.ShippingCents,
		&order.TaxCents, &order.TotalCents, &order.Currency,
		&sessionID, &intentID, &failure, &order.Status,
		&order.CreatedAt, &paidAt, &shippedAt, &deliveredAt, &cancelledAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, err
	}

	if couponCode.Valid {
		order.CouponCode = couponCode.String
	}
	if sessionID.Valid {
		order.StripeCheckoutSessionID = sessionID.String
	}
	if intentID.Valid {
		order.StripePaymentIntentID = intentID.String
	}
	if failure.Valid {
		order.FailureReason = failure.String
	}
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}
	if shippedAt.Valid {
		order.ShippedAt = shippedAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = cancelledAt.Time
	}

	return &order, nil
}

func textOrNull(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
