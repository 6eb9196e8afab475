package models

import (
	"time"

	"github.com/google/uuid"
)

type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "bronze"
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"
)

type LoyaltyTransactionType string

const (
	LoyaltyEarned   LoyaltyTransactionType = "earned"
	LoyaltyRedeemed LoyaltyTransactionType = "redeemed"
	LoyaltyExpired  LoyaltyTransactionType = "expired"
	LoyaltyBonus    LoyaltyTransactionType = "bonus"
)

// LoyaltyAccount is the one-per-user points record. Tier is derived from
// LifetimePoints and recomputed on every credit.
type LoyaltyAccount struct {
	UserID         uuid.UUID   `json:"user_id"`
	PointsBalance  int64       `json:"points_balance"`
	LifetimePoints int64       `json:"lifetime_points"`
	Tier           LoyaltyTier `json:"tier"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type LoyaltyTransaction struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user_id"`
	Type        LoyaltyTransactionType `json:"type"`
	Points      int64                  `json:"points"`
	Description string                 `json:"description"`
	OrderID     uuid.UUID              `json:"order_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}
