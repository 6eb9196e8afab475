package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/pricing"
)

type loyaltyStore interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*db.LoyaltyAccount, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*db.LoyaltyTransaction, error)
}

type LoyaltyService struct {
	accounts loyaltyStore
	logger   *slog.Logger
}

func NewLoyaltyService(accounts loyaltyStore, logger *slog.Logger) *LoyaltyService {
	return &LoyaltyService{accounts: accounts, logger: logger}
}

func (s *LoyaltyService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *LoyaltyService) Account(ctx context.Context, userID uuid.UUID) (*db.LoyaltyAccount, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}
	return account, nil
}

// Preview computes the discount a redemption would produce without
// deducting anything. The deduction happens inside the checkout
// transaction, which re-checks the balance.
func (s *LoyaltyService) Preview(ctx context.Context, userID uuid.UUID, points int64) (pricing.RedemptionPreview, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return pricing.RedemptionPreview{}, fmt.Errorf("failed to load loyalty account: %w", err)
	}

	preview, err := pricing.PreviewRedemption(account, points)
	if err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			s.loggerFromContext(ctx).Info("redemption preview rejected",
				"user_id", userID, "points", points, "reason", rejection.Reason)
		}
		return pricing.RedemptionPreview{}, err
	}
	return preview, nil
}

func (s *LoyaltyService) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]*db.LoyaltyTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	transactions, err := s.accounts.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loyalty transactions: %w", err)
	}
	return transactions, nil
}
