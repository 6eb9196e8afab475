package models

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is an administrator-issued discount rule. Zero values for
// MinPurchaseCents, MaxDiscountCents, UsageLimit and PerUserLimit mean
// the corresponding restriction is not configured.
type Coupon struct {
	ID                uuid.UUID    `json:"id"`
	Code              string       `json:"code"`
	DiscountType      DiscountType `json:"discount_type"`
	Value             int64        `json:"value"`
	MinPurchaseCents  int64        `json:"min_purchase_cents"`
	MaxDiscountCents  int64        `json:"max_discount_cents"`
	UsageLimit        int64        `json:"usage_limit"`
	UsageCount        int64        `json:"usage_count"`
	PerUserLimit      int64        `json:"per_user_limit"`
	ValidFrom         time.Time    `json:"valid_from"`
	ValidUntil        time.Time    `json:"valid_until"`
	FirstPurchaseOnly bool         `json:"first_purchase_only"`
	Categories        []string     `json:"categories,omitempty"`
	Active            bool         `json:"active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
