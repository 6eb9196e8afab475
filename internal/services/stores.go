package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/models"
)

// Store surfaces shared by the checkout and order lifecycle services.
// The Tx variants run inside a caller-owned transaction so consuming
// writes and their compensations commit atomically.

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

type stockStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.Product, error)
	DecrementStockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int64) error
	RestockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int64) error
}

type couponLedger interface {
	GetByCode(ctx context.Context, code string) (*db.Coupon, error)
	ConsumeTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error
	ReleaseTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error
}

type loyaltyLedger interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*db.LoyaltyAccount, error)
	RedeemTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int64, orderID uuid.UUID) error
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int64, tier models.LoyaltyTier, txn *db.LoyaltyTransaction) error
	LifetimePointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error)
}

type orderStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, order *db.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*db.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*db.Order, error)
	UpdateStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, paymentIntentID string, pointsEarned int64) error
	MarkFailed(ctx context.Context, orderID uuid.UUID, reason string) error
	MarkFailedTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, reason string) error
	MarkShipped(ctx context.Context, orderID uuid.UUID) error
	MarkDelivered(ctx context.Context, orderID uuid.UUID) error
	MarkCancelledTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status db.OrderStatus) error
}
