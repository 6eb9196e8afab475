package pricing

import (
	"fmt"
	"time"

	"github.com/sunushop/sunushop/internal/models"
)

// Rejection reason codes emitted by EvaluateCoupon, in validation order.
const (
	ReasonCouponInactive      = "coupon_inactive"
	ReasonCouponNotYetValid   = "coupon_not_yet_valid"
	ReasonCouponExpired       = "coupon_expired"
	ReasonCouponUsageLimit    = "coupon_usage_limit"
	ReasonCouponPerUserLimit  = "coupon_per_user_limit"
	ReasonCouponFirstPurchase = "coupon_first_purchase_only"
	ReasonCouponMinPurchase   = "coupon_min_purchase"
	ReasonCouponZeroDiscount  = "coupon_zero_discount"
	ReasonCouponScopeMismatch = "coupon_scope_mismatch"
)

// CouponContext carries the per-request facts the evaluator needs; the
// caller resolves them from the stores before evaluation.
type CouponContext struct {
	Now             time.Time
	SubtotalCents   int64
	ItemCategories  []string
	UserRedemptions int64 // prior non-cancelled orders by this user carrying this code
	PriorPurchases  int64 // non-cancelled orders by this user, any code
}

// EvaluateCoupon runs the validation chain and computes the discount.
// It short-circuits on the first failing rule so the buyer always sees
// the most specific message, and it never mutates anything: usage counts
// are consumed only when an order is committed.
func EvaluateCoupon(coupon *models.Coupon, evalCtx CouponContext) (int64, error) {
	if !coupon.Active {
		return 0, reject(ReasonCouponInactive, "this coupon is no longer active")
	}

	now := evalCtx.Now
	if now.IsZero() {
		now = time.Now()
	}
	if !coupon.ValidFrom.IsZero() && now.Before(coupon.ValidFrom) {
		return 0, reject(ReasonCouponNotYetValid, "this coupon is not yet valid")
	}
	if !coupon.ValidUntil.IsZero() && now.After(coupon.ValidUntil) {
		return 0, reject(ReasonCouponExpired, "this coupon has expired")
	}

	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return 0, reject(ReasonCouponUsageLimit, "this coupon has reached its usage limit")
	}
	if coupon.PerUserLimit > 0 && evalCtx.UserRedemptions >= coupon.PerUserLimit {
		return 0, reject(ReasonCouponPerUserLimit, "you have reached the maximum uses of this coupon")
	}
	if coupon.FirstPurchaseOnly && evalCtx.PriorPurchases > 0 {
		return 0, reject(ReasonCouponFirstPurchase, "this coupon is only valid on your first purchase")
	}
	if coupon.MinPurchaseCents > 0 && evalCtx.SubtotalCents < coupon.MinPurchaseCents {
		return 0, reject(ReasonCouponMinPurchase,
			fmt.Sprintf("a minimum purchase of %d is required to use this coupon", coupon.MinPurchaseCents))
	}
	if len(coupon.Categories) > 0 && !matchesAnyCategory(coupon.Categories, evalCtx.ItemCategories) {
		return 0, reject(ReasonCouponScopeMismatch, "this coupon does not apply to the items in your cart")
	}

	discount := CalculateDiscount(coupon, evalCtx.SubtotalCents)
	if discount <= 0 {
		return 0, reject(ReasonCouponZeroDiscount, "this coupon does not apply to your order")
	}
	return discount, nil
}

// CalculateDiscount computes the raw discount for a coupon against a
// subtotal: percentage coupons are capped at MaxDiscountCents when set,
// and no coupon ever discounts more than the subtotal itself.
func CalculateDiscount(coupon *models.Coupon, subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}

	var discount int64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = subtotalCents * coupon.Value / 100
		if coupon.MaxDiscountCents > 0 && discount > coupon.MaxDiscountCents {
			discount = coupon.MaxDiscountCents
		}
	case models.DiscountFixed:
		discount = coupon.Value
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	return min(discount, subtotalCents)
}

func matchesAnyCategory(couponCategories, itemCategories []string) bool {
	allowed := make(map[string]struct{}, len(couponCategories))
	for _, c := range couponCategories {
		allowed[c] = struct{}{}
	}
	for _, c := range itemCategories {
		if _, ok := allowed[c]; ok {
			return true
		}
	}
	return false
}
