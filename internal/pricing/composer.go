package pricing

import (
	"github.com/sunushop/sunushop/internal/models"
)

// Totals is the complete monetary breakdown of an order. The
// composition order is fixed: items subtotal, then discounts (clamped
// to the subtotal), then tax on the discounted base, then shipping.
type Totals struct {
	SubtotalCents        int64
	CouponDiscountCents  int64
	LoyaltyDiscountCents int64
	DiscountCents        int64
	TaxableCents         int64
	TaxCents             int64
	ShippingCents        int64
	TotalCents           int64
}

// ComposeTotals combines validated component results into the final
// payable amount. The coupon evaluator and loyalty redeemer already
// bound their discounts, but the clamp is re-asserted here so the
// composed total can never go negative regardless of caller mistakes.
func ComposeTotals(items []models.OrderItem, couponDiscountCents, loyaltyDiscountCents, shippingCents int64, settings models.Settings) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotalCents()
	}

	coupon := clampDiscount(couponDiscountCents, subtotal)
	loyalty := clampDiscount(loyaltyDiscountCents, subtotal-coupon)
	discount := coupon + loyalty

	taxable := subtotal - discount
	tax := CalculateTax(taxable, settings)

	if shippingCents < 0 {
		shippingCents = 0
	}

	total := taxable + shippingCents
	if !settings.PricesIncludeTax {
		// Exclusive pricing adds tax on top; inclusive pricing already
		// carries it inside the taxable base.
		total += tax
	}
	if total < 0 {
		total = 0
	}

	return Totals{
		SubtotalCents:        subtotal,
		CouponDiscountCents:  coupon,
		LoyaltyDiscountCents: loyalty,
		DiscountCents:        discount,
		TaxableCents:         taxable,
		TaxCents:             tax,
		ShippingCents:        shippingCents,
		TotalCents:           total,
	}
}

func clampDiscount(discount, limit int64) int64 {
	if discount < 0 {
		return 0
	}
	if limit < 0 {
		return 0
	}
	return min(discount, limit)
}
