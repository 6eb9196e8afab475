package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCouponExhausted is returned when a conditional usage increment
// finds the global usage limit already reached.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

type CouponStore struct {
	pool *pgxpool.Pool
}

func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

const couponColumns = `id, code, discount_type, value, min_purchase_cents, max_discount_cents,
	usage_limit, usage_count, per_user_limit, valid_from, valid_until,
	first_purchase_only, categories, active, created_at, updated_at`

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE upper(code) = upper($1)`
	return scanCoupon(s.pool.QueryRow(ctx, query, code))
}

func (s *CouponStore) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	return scanCoupon(s.pool.QueryRow(ctx, query, id))
}

func (s *CouponStore) List(ctx context.Context, limit int) ([]*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}

func (s *CouponStore) Create(ctx context.Context, coupon *Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_type, value, min_purchase_cents, max_discount_cents,
			usage_limit, per_user_limit, valid_from, valid_until, first_purchase_only, categories, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, usage_count, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		coupon.Code, string(coupon.DiscountType), coupon.Value,
		coupon.MinPurchaseCents, coupon.MaxDiscountCents,
		coupon.UsageLimit, coupon.PerUserLimit,
		coupon.ValidFrom, coupon.ValidUntil,
		coupon.FirstPurchaseOnly, coupon.Categories, coupon.Active).
		Scan(&coupon.ID, &coupon.UsageCount, &coupon.CreatedAt, &coupon.UpdatedAt)
}

func (s *CouponStore) Update(ctx context.Context, coupon *Coupon) error {
	query := `
		UPDATE coupons
		SET discount_type = $2, value = $3, min_purchase_cents = $4, max_discount_cents = $5,
			usage_limit = $6, per_user_limit = $7, valid_from = $8, valid_until = $9,
			first_purchase_only = $10, categories = $11, active = $12, updated_at = NOW()
		WHERE id = $1
	`
	cmdTag, err := s.pool.Exec(ctx, query,
		coupon.ID, string(coupon.DiscountType), coupon.Value,
		coupon.MinPurchaseCents, coupon.MaxDiscountCents,
		coupon.UsageLimit, coupon.PerUserLimit,
		coupon.ValidFrom, coupon.ValidUntil,
		coupon.FirstPurchaseOnly, coupon.Categories, coupon.Active)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CouponStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmdTag, err := s.pool.Exec(ctx,
		`UPDATE coupons SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ConsumeTx increments the usage count inside the checkout transaction,
// guarded so concurrent redemptions can never overshoot the limit.
func (s *CouponStore) ConsumeTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)
	`
	cmdTag, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponExhausted
	}
	return nil
}

// ReleaseTx undoes one consumed use when an order is cancelled or expires.
func (s *CouponStore) ReleaseTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count - 1, updated_at = NOW()
		WHERE id = $1 AND usage_count > 0
	`
	_, err := tx.Exec(ctx, query, couponID)
	return err
}

// CountUserRedemptions counts the non-cancelled orders by a user that
// carry the coupon code, for per-user limit checks.
func (s *CouponStore) CountUserRedemptions(ctx context.Context, userID uuid.UUID, code string) (int64, error) {
	query := `
		SELECT count(*)
		FROM orders
		WHERE user_id = $1 AND upper(coupon_code) = upper($2)
			AND status NOT IN ('cancelled', 'expired', 'payment_failed')
	`
	var count int64
	if err := s.pool.QueryRow(ctx, query, userID, code).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanCoupon(row pgx.Row) (*Coupon, error) {
	var coupon Coupon
	if err := row.Scan(
		&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.Value,
		&coupon.MinPurchaseCents, &coupon.MaxDiscountCents,
		&coupon.UsageLimit, &coupon.UsageCount, &coupon.PerUserLimit,
		&coupon.ValidFrom, &coupon.ValidUntil,
		&coupon.FirstPurchaseOnly, &coupon.Categories, &coupon.Active,
		&coupon.CreatedAt, &coupon.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &coupon, nil
}
