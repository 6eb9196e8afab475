package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v84"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/observability"
	"github.com/sunushop/sunushop/internal/payments"
	"github.com/sunushop/sunushop/internal/pricing"
)

const (
	ReasonProductUnavailable = "product_unavailable"
	ReasonInsufficientStock  = "insufficient_stock"
	ReasonEmptyCart          = "empty_cart"
)

// paymentStarter is the slice of the Stripe client checkout needs.
type paymentStarter interface {
	CreateCheckoutSession(ctx context.Context, params payments.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutService composes an order's totals and commits it in one
// transaction. Stock, coupon usage and loyalty points are consumed with
// guarded conditional updates so two concurrent checkouts can never
// overspend a shared resource.
type CheckoutService struct {
	pool          txBeginner
	users         userLookup
	products      stockStore
	coupons       couponLedger
	loyalty       loyaltyLedger
	orders        orderStore
	couponService *CouponService
	shipping      *ShippingService
	settings      *SettingsService
	payments      paymentStarter
	emailSender   OrderEmailSender
	logger        *slog.Logger
}

func NewCheckoutService(
	pool txBeginner,
	users userLookup,
	products stockStore,
	coupons couponLedger,
	loyalty loyaltyLedger,
	orders orderStore,
	couponService *CouponService,
	shipping *ShippingService,
	settings *SettingsService,
	paymentsClient *payments.Client,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *CheckoutService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	s := &CheckoutService{
		pool:          pool,
		users:         users,
		products:      products,
		coupons:       coupons,
		loyalty:       loyalty,
		orders:        orders,
		couponService: couponService,
		shipping:      shipping,
		settings:      settings,
		emailSender:   emailSender,
		logger:        logger,
	}
	if paymentsClient != nil {
		s.payments = paymentsClient
	}
	return s
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CheckoutItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

type CheckoutInput struct {
	UserID          uuid.UUID
	Items           []CheckoutItemInput
	ShippingAddress models.ShippingAddress
	CouponCode      string
	PointsToRedeem  int64
}

type CheckoutResult struct {
	Order      *db.Order
	Totals     pricing.Totals
	PaymentURL string
}

func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.checkout",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("Checkout"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.requested", 1)
	recordRejection := func(reason string) {
		meter.Count("checkout.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if err := validateCheckoutInput(input); err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			recordRejection(rejection.Reason)
		}
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	orderItems, categories, err := s.resolveItems(ctx, input.Items)
	if err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			recordRejection(rejection.Reason)
		}
		return nil, err
	}

	var subtotal int64
	for _, item := range orderItems {
		subtotal += item.LineTotalCents()
	}

	var coupon *db.Coupon
	var couponDiscount int64
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		validation, err := s.couponService.Validate(ctx, ValidateCouponInput{
			UserID:         input.UserID,
			Code:           code,
			SubtotalCents:  subtotal,
			ItemCategories: categories,
		})
		if err != nil {
			if rejection, ok := pricing.AsRejection(err); ok {
				recordRejection(rejection.Reason)
			}
			return nil, err
		}
		coupon = validation.Coupon
		couponDiscount = validation.DiscountCents
	}

	account, err := s.loyalty.GetAccount(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}

	var loyaltyDiscount int64
	if input.PointsToRedeem > 0 {
		preview, err := pricing.PreviewRedemption(account, input.PointsToRedeem)
		if err != nil {
			if rejection, ok := pricing.AsRejection(err); ok {
				recordRejection(rejection.Reason)
			}
			return nil, err
		}
		loyaltyDiscount = preview.DiscountCents
	}

	quote, err := s.shipping.Quote(ctx, input.ShippingAddress.Country, input.ShippingAddress.Region, subtotal)
	if err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			recordRejection(rejection.Reason)
		}
		return nil, err
	}

	totals := pricing.ComposeTotals(orderItems, couponDiscount, loyaltyDiscount, quote.ShippingCostCents, settings)

	order := &db.Order{
		UserID:              input.UserID,
		Items:               orderItems,
		ShippingAddress:     input.ShippingAddress,
		CouponDiscountCents: totals.CouponDiscountCents,
		PointsRedeemed:      input.PointsToRedeem,
		SubtotalCents:       totals.SubtotalCents,
		DiscountCents:       totals.DiscountCents,
		ShippingCents:       totals.ShippingCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		Currency:            settings.Currency,
		Status:              db.StatusPendingPayment,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	paidInline := totals.TotalCents == 0

	if err := s.commitOrder(ctx, order, coupon, input, account, settings, paidInline); err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			recordRejection(rejection.Reason)
		}
		return nil, err
	}

	result := &CheckoutResult{Order: order, Totals: totals}

	if paidInline {
		meter.Count("checkout.committed", 1, sentry.WithAttributes(
			attribute.String("payment", "none"),
		))
		s.sendConfirmationEmail(ctx, user, order)
		return result, nil
	}

	if s.payments == nil {
		meter.Count("checkout.committed", 1, sentry.WithAttributes(
			attribute.String("payment", "deferred"),
		))
		return result, nil
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		OrderID:       order.ID,
		UserID:        order.UserID,
		OrderNumber:   order.OrderNumber,
		AmountCents:   order.TotalCents,
		Currency:      order.Currency,
		CustomerEmail: user.Email,
	})
	if err != nil {
		logger.Error("failed to create checkout session", "error", err, "order_id", order.ID)
		if releaseErr := s.releaseFailedCheckout(ctx, order, "payment session creation failed"); releaseErr != nil {
			logger.Error("failed to release failed checkout", "error", releaseErr, "order_id", order.ID)
		}
		return nil, fmt.Errorf("failed to start payment: %w", err)
	}

	if err := s.orders.UpdateStripeSession(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}
	order.StripeCheckoutSessionID = session.ID

	meter.Count("checkout.committed", 1, sentry.WithAttributes(
		attribute.String("payment", "stripe"),
	))
	logger.Info("checkout committed",
		"order_id", order.ID, "order_number", order.OrderNumber,
		"total_cents", order.TotalCents, "points_redeemed", order.PointsRedeemed)

	result.PaymentURL = session.URL
	return result, nil
}

// commitOrder runs every consuming write in one transaction so a
// failure at any step leaves stock, coupon usage and point balances
// untouched.
func (s *CheckoutService) commitOrder(ctx context.Context, order *db.Order, coupon *db.Coupon, input CheckoutInput, account *db.LoyaltyAccount, settings models.Settings, paidInline bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.CreateTx(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if err := s.products.DecrementStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, db.ErrInsufficientStock) {
				return &pricing.Rejection{
					Reason:  ReasonInsufficientStock,
					Message: fmt.Sprintf("not enough stock for %s", item.Name),
				}
			}
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if coupon != nil {
		if err := s.coupons.ConsumeTx(ctx, tx, coupon.ID); err != nil {
			if errors.Is(err, db.ErrCouponExhausted) {
				return &pricing.Rejection{
					Reason:  pricing.ReasonCouponUsageLimit,
					Message: "this coupon has reached its usage limit",
				}
			}
			return fmt.Errorf("failed to consume coupon: %w", err)
		}
	}

	if input.PointsToRedeem > 0 {
		if err := s.loyalty.RedeemTx(ctx, tx, input.UserID, input.PointsToRedeem, order.ID); err != nil {
			if errors.Is(err, db.ErrInsufficientPoints) {
				return &pricing.Rejection{
					Reason:  pricing.ReasonPointsInsufficient,
					Message: "insufficient points",
				}
			}
			return fmt.Errorf("failed to redeem points: %w", err)
		}
	}

	if paidInline {
		earned := pricing.EarnedPoints(order.TotalCents, account.Tier, settings.LoyaltyEarnBaseCents)
		if err := creditEarnedPoints(ctx, tx, s.loyalty, order, earned); err != nil {
			return err
		}
		if err := s.orders.MarkPaidTx(ctx, tx, order.ID, "", earned); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		order.Status = db.StatusPaid
		order.PointsEarned = earned
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}
	return nil
}

// releaseFailedCheckout undoes a committed checkout whose payment could
// never start. No Stripe session exists for the order, so no webhook
// will ever fire for it; the reservations have to be released here.
func (s *CheckoutService) releaseFailedCheckout(ctx context.Context, order *db.Order, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.MarkFailedTx(ctx, tx, order.ID, reason); err != nil {
		return err
	}

	if err := releaseOrderResources(ctx, tx, s.products, s.coupons, s.loyalty, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit release transaction: %w", err)
	}

	order.Status = db.StatusPaymentFailed
	s.loggerFromContext(ctx).Info("failed checkout released",
		"order_id", order.ID, "reason", reason)
	return nil
}

func (s *CheckoutService) resolveItems(ctx context.Context, items []CheckoutItemInput) ([]db.OrderItem, []string, error) {
	orderItems := make([]db.OrderItem, 0, len(items))
	categorySet := make(map[string]struct{})

	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, &pricing.Rejection{
					Reason:  ReasonProductUnavailable,
					Message: "one of the products in your cart is no longer available",
				}
			}
			return nil, nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.Active {
			return nil, nil, &pricing.Rejection{
				Reason:  ReasonProductUnavailable,
				Message: fmt.Sprintf("%s is no longer available", product.Name),
			}
		}

		orderItems = append(orderItems, db.OrderItem{
			ProductID:      product.ID,
			SellerID:       product.SellerID,
			SKU:            product.SKU,
			Name:           product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.UnitPriceCents,
		})
		if product.Category != "" {
			categorySet[product.Category] = struct{}{}
		}
	}

	categories := make([]string, 0, len(categorySet))
	for category := range categorySet {
		categories = append(categories, category)
	}
	return orderItems, categories, nil
}

func (s *CheckoutService) sendConfirmationEmail(ctx context.Context, user *db.User, order *db.Order) {
	if err := s.emailSender.SendOrderConfirmation(ctx, user, order); err != nil {
		s.loggerFromContext(ctx).Error("failed to send order confirmation email",
			"error", err, "order_id", order.ID)
	}
}

func validateCheckoutInput(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return &pricing.Rejection{Reason: ReasonEmptyCart, Message: "your cart is empty"}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item quantity must be positive")
		}
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("item product id is required")
		}
	}
	if strings.TrimSpace(input.ShippingAddress.Country) == "" {
		return fmt.Errorf("shipping country is required")
	}
	if input.PointsToRedeem < 0 {
		return fmt.Errorf("points to redeem cannot be negative")
	}
	return nil
}

// creditEarnedPoints records an earn credit and keeps the stored tier in
// step with the new lifetime total.
func creditEarnedPoints(ctx context.Context, tx pgx.Tx, loyalty loyaltyLedger, order *db.Order, earned int64) error {
	if earned <= 0 {
		return nil
	}

	lifetime, err := loyalty.LifetimePointsTx(ctx, tx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to load lifetime points: %w", err)
	}
	tier := pricing.TierForLifetimePoints(lifetime + earned)

	txn := &db.LoyaltyTransaction{
		UserID:      order.UserID,
		Type:        models.LoyaltyEarned,
		Points:      earned,
		Description: fmt.Sprintf("Points earned on order #%d", order.OrderNumber),
		OrderID:     order.ID,
	}
	if err := loyalty.CreditTx(ctx, tx, order.UserID, earned, tier, txn); err != nil {
		return fmt.Errorf("failed to credit earned points: %w", err)
	}
	return nil
}
