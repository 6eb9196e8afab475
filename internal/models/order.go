package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusPaymentFailed  OrderStatus = "payment_failed"
	StatusExpired        OrderStatus = "expired"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// Cancellable reports whether an order can still be cancelled by the buyer.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPendingPayment || s == StatusPaymentFailed
}

// OrderItem is an immutable price snapshot of one line at checkout time.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * i.Quantity
}

type ShippingAddress struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

type Order struct {
	ID                      uuid.UUID       `json:"id"`
	OrderNumber             int64           `json:"order_number"`
	UserID                  uuid.UUID       `json:"user_id"`
	Items                   []OrderItem     `json:"items"`
	ShippingAddress         ShippingAddress `json:"shipping_address"`
	CouponCode              string          `json:"coupon_code,omitempty"`
	CouponDiscountCents     int64           `json:"coupon_discount_cents"`
	PointsRedeemed          int64           `json:"points_redeemed"`
	PointsEarned            int64           `json:"points_earned"`
	SubtotalCents           int64           `json:"subtotal_cents"`
	DiscountCents           int64           `json:"discount_cents"`
	ShippingCents           int64           `json:"shipping_cents"`
	TaxCents                int64           `json:"tax_cents"`
	TotalCents              int64           `json:"total_cents"`
	Currency                string          `json:"currency"`
	StripeCheckoutSessionID string          `json:"stripe_checkout_session_id,omitempty"`
	StripePaymentIntentID   string          `json:"stripe_payment_intent_id,omitempty"`
	FailureReason           string          `json:"failure_reason,omitempty"`
	Status                  OrderStatus     `json:"status"`
	CreatedAt               time.Time       `json:"created_at"`
	PaidAt                  time.Time       `json:"paid_at"`
	ShippedAt               time.Time       `json:"shipped_at"`
	DeliveredAt             time.Time       `json:"delivered_at"`
	CancelledAt             time.Time       `json:"cancelled_at"`
}
