package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sunushop/sunushop/internal/models"
)

// ErrInsufficientPoints is returned when a conditional balance
// deduction finds fewer points than requested.
var ErrInsufficientPoints = errors.New("insufficient points")

type LoyaltyStore struct {
	pool *pgxpool.Pool
}

func NewLoyaltyStore(pool *pgxpool.Pool) *LoyaltyStore {
	return &LoyaltyStore{pool: pool}
}

// GetAccount returns the user's loyalty account, creating an empty
// bronze account on first access.
func (s *LoyaltyStore) GetAccount(ctx context.Context, userID uuid.UUID) (*LoyaltyAccount, error) {
	query := `
		INSERT INTO loyalty_accounts (user_id, points_balance, lifetime_points, tier)
		VALUES ($1, 0, 0, 'bronze')
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, points_balance, lifetime_points, tier, updated_at
	`
	var account LoyaltyAccount
	if err := s.pool.QueryRow(ctx, query, userID).
		Scan(&account.UserID, &account.PointsBalance, &account.LifetimePoints, &account.Tier, &account.UpdatedAt); err != nil {
		return nil, err
	}
	return &account, nil
}

// RedeemTx deducts points inside the checkout transaction, guarded so
// the balance can never go negative under concurrent redemptions.
func (s *LoyaltyStore) RedeemTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int64, orderID uuid.UUID) error {
	query := `
		UPDATE loyalty_accounts
		SET points_balance = points_balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND points_balance >= $2
	`
	cmdTag, err := tx.Exec(ctx, query, userID, points)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrInsufficientPoints
	}

	return s.appendTransactionTx(ctx, tx, &LoyaltyTransaction{
		UserID:      userID,
		Type:        models.LoyaltyRedeemed,
		Points:      -points,
		Description: "points redeemed at checkout",
		OrderID:     orderID,
	})
}

// CreditTx adds points (earned or bonus), bumps lifetime points for
// earn events, and stores the recomputed tier.
func (s *LoyaltyStore) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int64, tier models.LoyaltyTier, txn *LoyaltyTransaction) error {
	query := `
		INSERT INTO loyalty_accounts (user_id, points_balance, lifetime_points, tier)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET points_balance = loyalty_accounts.points_balance + $2,
			lifetime_points = loyalty_accounts.lifetime_points + $3,
			tier = $4,
			updated_at = NOW()
	`
	lifetimeDelta := int64(0)
	if txn != nil && txn.Type == models.LoyaltyEarned {
		lifetimeDelta = points
	}
	if _, err := tx.Exec(ctx, query, userID, points, lifetimeDelta, string(tier)); err != nil {
		return err
	}
	if txn == nil {
		return nil
	}
	return s.appendTransactionTx(ctx, tx, txn)
}

// LifetimePointsTx reads the lifetime total inside a transaction so the
// caller can recompute the tier before crediting.
func (s *LoyaltyStore) LifetimePointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	var lifetime int64
	err := tx.QueryRow(ctx,
		`SELECT lifetime_points FROM loyalty_accounts WHERE user_id = $1`, userID).Scan(&lifetime)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return lifetime, nil
}

func (s *LoyaltyStore) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*LoyaltyTransaction, error) {
	query := `
		SELECT id, user_id, type, points, description, order_id, created_at
		FROM loyalty_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*LoyaltyTransaction
	for rows.Next() {
		var txn LoyaltyTransaction
		var orderID pgtype.UUID
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Type, &txn.Points, &txn.Description, &orderID, &txn.CreatedAt); err != nil {
			return nil, err
		}
		if orderID.Valid {
			txn.OrderID = orderID.Bytes
		}
		transactions = append(transactions, &txn)
	}
	return transactions, rows.Err()
}

func (s *LoyaltyStore) appendTransactionTx(ctx context.Context, tx pgx.Tx, txn *LoyaltyTransaction) error {
	query := `
		INSERT INTO loyalty_transactions (user_id, type, points, description, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	orderID := pgtype.UUID{Bytes: txn.OrderID, Valid: txn.OrderID != uuid.Nil}
	return tx.QueryRow(ctx, query, txn.UserID, string(txn.Type), txn.Points, txn.Description, orderID).
		Scan(&txn.ID, &txn.CreatedAt)
}
