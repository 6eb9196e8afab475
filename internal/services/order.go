package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/observability"
	"github.com/sunushop/sunushop/internal/pricing"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotYours     = errors.New("order does not belong to this user")
	ErrOrderNotCancelled = errors.New("order can no longer be cancelled")
)

// OrderService owns order lifecycle transitions after checkout: payment
// confirmation, fulfilment, and cancellation with full compensation of
// stock, coupon usage and loyalty points.
type OrderService struct {
	pool        txBeginner
	orders      orderStore
	products    stockStore
	coupons     couponLedger
	loyalty     loyaltyLedger
	users       userLookup
	settings    *SettingsService
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewOrderService(
	pool txBeginner,
	orders orderStore,
	products stockStore,
	coupons couponLedger,
	loyalty loyaltyLedger,
	users userLookup,
	settings *SettingsService,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *OrderService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &OrderService{
		pool:        pool,
		orders:      orders,
		products:    products,
		coupons:     coupons,
		loyalty:     loyalty,
		users:       users,
		settings:    settings,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID, requester *Identity) (*db.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if requester != nil && requester.Role != models.RoleAdmin && order.UserID != requester.UserID {
		return nil, ErrOrderNotYours
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*db.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	orders, err := s.orders.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// HandlePaymentCompleted transitions an order to paid and credits the
// loyalty points earned on the final total. It is idempotent against
// webhook redelivery: a repeated transition fails the status guard and
// is reported as already handled.
func (s *OrderService) HandlePaymentCompleted(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error {
	span := sentry.StartSpan(
		ctx,
		"service.order.handle_payment_completed",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("HandlePaymentCompleted"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to load order: %w", err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	account, err := s.loyalty.GetAccount(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to load loyalty account: %w", err)
	}
	earned := pricing.EarnedPoints(order.TotalCents, account.Tier, settings.LoyaltyEarnBaseCents)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.MarkPaidTx(ctx, tx, order.ID, paymentIntentID, earned); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("payment already handled", "order_id", order.ID, "status", order.Status)
			return nil
		}
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if err := creditEarnedPoints(ctx, tx, s.loyalty, order, earned); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment transaction: %w", err)
	}

	order.Status = db.StatusPaid
	order.PointsEarned = earned

	meter.Count("order.paid", 1)
	logger.Info("order paid",
		"order_id", order.ID, "order_number", order.OrderNumber,
		"total_cents", order.TotalCents, "points_earned", earned)

	s.sendOrderEmail(ctx, order, emailConfirmation)
	return nil
}

// HandlePaymentFailed records a failed payment attempt. The order stays
// recoverable: the buyer can retry or cancel, and nothing is released
// until they do.
func (s *OrderService) HandlePaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) error {
	if reason == "" {
		reason = "payment failed"
	}
	if err := s.orders.MarkFailed(ctx, orderID, reason); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil
		}
		return fmt.Errorf("failed to mark order failed: %w", err)
	}

	observability.MeterFromContext(ctx).Count("order.payment_failed", 1)
	s.loggerFromContext(ctx).Info("payment failed", "order_id", orderID, "reason", reason)
	return nil
}

// HandleSessionExpired releases everything an abandoned checkout had
// reserved.
func (s *OrderService) HandleSessionExpired(ctx context.Context, orderID uuid.UUID) error {
	if err := s.compensate(ctx, orderID, db.StatusExpired); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil
		}
		return err
	}

	observability.MeterFromContext(ctx).Count("order.expired", 1)
	s.loggerFromContext(ctx).Info("checkout session expired", "order_id", orderID)
	return nil
}

// Cancel lets a buyer abandon an unpaid order, releasing its stock,
// coupon usage and redeemed points.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, requester *Identity) error {
	order, err := s.Get(ctx, orderID, requester)
	if err != nil {
		return err
	}
	if !order.Status.Cancellable() {
		return ErrOrderNotCancelled
	}

	if err := s.compensate(ctx, orderID, db.StatusCancelled); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return ErrOrderNotCancelled
		}
		return err
	}

	observability.MeterFromContext(ctx).Count("order.cancelled", 1)
	s.loggerFromContext(ctx).Info("order cancelled", "order_id", orderID)
	return nil
}

// compensate atomically flips the order into a terminal unpaid status
// and reverses every resource the checkout transaction consumed.
func (s *OrderService) compensate(ctx context.Context, orderID uuid.UUID, status db.OrderStatus) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to load order: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.MarkCancelledTx(ctx, tx, order.ID, status); err != nil {
		return err
	}

	if err := releaseOrderResources(ctx, tx, s.products, s.coupons, s.loyalty, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit compensation: %w", err)
	}
	return nil
}

// releaseOrderResources reverses everything the checkout transaction
// consumed: stock, coupon usage and redeemed points. It runs inside the
// caller's transaction, next to the guarded status flip that keeps an
// order from being released twice.
func releaseOrderResources(ctx context.Context, tx pgx.Tx, products stockStore, coupons couponLedger, loyalty loyaltyLedger, order *db.Order) error {
	for _, item := range order.Items {
		if err := products.RestockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restock %s: %w", item.SKU, err)
		}
	}

	if order.CouponCode != "" {
		coupon, err := coupons.GetByCode(ctx, order.CouponCode)
		if err == nil {
			if err := coupons.ReleaseTx(ctx, tx, coupon.ID); err != nil {
				return fmt.Errorf("failed to release coupon usage: %w", err)
			}
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to load coupon for release: %w", err)
		}
	}

	if order.PointsRedeemed > 0 {
		lifetime, err := loyalty.LifetimePointsTx(ctx, tx, order.UserID)
		if err != nil {
			return fmt.Errorf("failed to load lifetime points: %w", err)
		}
		txn := &db.LoyaltyTransaction{
			UserID:      order.UserID,
			Type:        models.LoyaltyBonus,
			Points:      order.PointsRedeemed,
			Description: fmt.Sprintf("Points returned from order #%d", order.OrderNumber),
			OrderID:     order.ID,
		}
		tier := pricing.TierForLifetimePoints(lifetime)
		if err := loyalty.CreditTx(ctx, tx, order.UserID, order.PointsRedeemed, tier, txn); err != nil {
			return fmt.Errorf("failed to return redeemed points: %w", err)
		}
	}
	return nil
}

// MarkShipped transitions a paid order to shipped and notifies the buyer.
func (s *OrderService) MarkShipped(ctx context.Context, orderID uuid.UUID) (*db.Order, error) {
	if err := s.orders.MarkShipped(ctx, orderID); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.loggerFromContext(ctx).Info("order shipped", "order_id", orderID)
	s.sendOrderEmail(ctx, order, emailShipped)
	return order, nil
}

// MarkDelivered transitions a shipped order to delivered and notifies the buyer.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*db.Order, error) {
	if err := s.orders.MarkDelivered(ctx, orderID); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.loggerFromContext(ctx).Info("order delivered", "order_id", orderID)
	s.sendOrderEmail(ctx, order, emailDelivered)
	return order, nil
}

type emailKind int

const (
	emailConfirmation emailKind = iota
	emailShipped
	emailDelivered
)

func (s *OrderService) sendOrderEmail(ctx context.Context, order *db.Order, kind emailKind) {
	logger := s.loggerFromContext(ctx)

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		logger.Error("failed to load user for order email", "error", err, "order_id", order.ID)
		return
	}

	switch kind {
	case emailConfirmation:
		err = s.emailSender.SendOrderConfirmation(ctx, user, order)
	case emailShipped:
		err = s.emailSender.SendOrderShipped(ctx, user, order)
	case emailDelivered:
		err = s.emailSender.SendOrderDelivered(ctx, user, order)
	}
	if err != nil {
		logger.Error("failed to send order email", "error", err, "order_id", order.ID)
	}
}
