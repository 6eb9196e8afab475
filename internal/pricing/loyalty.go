package pricing

import (
	"github.com/sunushop/sunushop/internal/models"
)

const (
	ReasonPointsNotPositive  = "points_not_positive"
	ReasonPointsInsufficient = "insufficient_points"
)

// Lifetime-point thresholds for tier promotion.
const (
	silverThreshold   = 20_000
	goldThreshold     = 50_000
	platinumThreshold = 100_000
)

// RedemptionPreview is the result of a preview-only redemption: nothing
// is deducted until the order is committed.
type RedemptionPreview struct {
	Points           int64
	DiscountCents    int64
	RemainingBalance int64
}

// PreviewRedemption converts requested points into a discount at the
// fixed 1 point = 1 minor currency unit rate, bounded by the balance.
func PreviewRedemption(account *models.LoyaltyAccount, points int64) (RedemptionPreview, error) {
	if points <= 0 {
		return RedemptionPreview{}, reject(ReasonPointsNotPositive, "points to redeem must be a positive number")
	}
	if account == nil || points > account.PointsBalance {
		return RedemptionPreview{}, reject(ReasonPointsInsufficient, "insufficient points")
	}

	return RedemptionPreview{
		Points:           points,
		DiscountCents:    points,
		RemainingBalance: account.PointsBalance - points,
	}, nil
}

// TierForLifetimePoints derives the loyalty tier from lifetime points.
func TierForLifetimePoints(lifetime int64) models.LoyaltyTier {
	switch {
	case lifetime >= platinumThreshold:
		return models.TierPlatinum
	case lifetime >= goldThreshold:
		return models.TierGold
	case lifetime >= silverThreshold:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// earnMultiplierPercent is the tier earn-rate multiplier in percent.
// Tiers only ever change how fast points accrue, never their value.
func earnMultiplierPercent(tier models.LoyaltyTier) int64 {
	switch tier {
	case models.TierPlatinum:
		return 200
	case models.TierGold:
		return 150
	case models.TierSilver:
		return 125
	default:
		return 100
	}
}

// EarnedPoints computes the points credited for a paid order total:
// one base point per earnBaseCents spent, scaled by the tier
// multiplier and floored.
func EarnedPoints(totalCents int64, tier models.LoyaltyTier, earnBaseCents int64) int64 {
	if totalCents <= 0 || earnBaseCents <= 0 {
		return 0
	}
	basePoints := totalCents / earnBaseCents
	return basePoints * earnMultiplierPercent(tier) / 100
}
