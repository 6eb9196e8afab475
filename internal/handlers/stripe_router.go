package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/observability"
	"github.com/sunushop/sunushop/internal/services"
)

type StripeEventRouter struct {
	orders  *db.OrderStore
	service *services.OrderService
	logger  *slog.Logger
}

func NewStripeEventRouter(orders *db.OrderStore, service *services.OrderService, logger *slog.Logger) *StripeEventRouter {
	return &StripeEventRouter{
		orders:  orders,
		service: service,
		logger:  logger,
	}
}

func (r *StripeEventRouter) Handle(ctx context.Context, event *stripeapi.Event) error {
	span := sentry.StartSpan(
		ctx,
		"handler.stripe_router.handle",
		sentry.WithOpName("handler.stripe_router"),
		sentry.WithDescription("StripeEventRouter.Handle"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("webhook.provider", "stripe"))
	meter.Count("webhook.router.received", 1)
	recordFailed := func(reason string) {
		meter.Count("webhook.router.failed", 1, sentry.WithAttributes(attribute.String("reason", reason)))
	}

	if event == nil {
		recordFailed("missing_event")
		return fmt.Errorf("missing stripe event")
	}
	if event.Data == nil {
		recordFailed("missing_event_data")
		return fmt.Errorf("missing stripe event data")
	}
	meter.SetAttributes(attribute.String("webhook.event_type", string(event.Type)))

	logger := logging.FromContext(ctx, r.logger)
	payload := event.Data.Raw

	switch event.Type {
	case "checkout.session.completed":
		if err := r.handleSessionCompleted(ctx, payload); err != nil {
			recordFailed("checkout_session_completed_failed")
			return err
		}
		meter.Count("webhook.router.processed", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	case "checkout.session.expired":
		if err := r.handleSessionExpired(ctx, payload); err != nil {
			recordFailed("checkout_session_expired_failed")
			return err
		}
		meter.Count("webhook.router.processed", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	case "payment_intent.payment_failed":
		if err := r.handlePaymentFailed(ctx, payload); err != nil {
			recordFailed("payment_intent_failed_handler_failed")
			return err
		}
		meter.Count("webhook.router.processed", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	default:
		logger.Info("unhandled Stripe event type", "type", event.Type)
		meter.Count("webhook.router.unhandled", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	}
}

type checkoutSessionPayload struct {
	stripeapi.CheckoutSession
}

type paymentIntentPayload struct {
	stripeapi.PaymentIntent
}

func (r *StripeEventRouter) handleSessionCompleted(ctx context.Context, payload []byte) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("missing session ID")
	}

	orderID, err := r.resolveOrderID(ctx, session.Metadata, session.ID)
	if err != nil {
		return err
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	return r.service.HandlePaymentCompleted(ctx, orderID, paymentIntentID)
}

func (r *StripeEventRouter) handleSessionExpired(ctx context.Context, payload []byte) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("missing session ID")
	}

	orderID, err := r.resolveOrderID(ctx, session.Metadata, session.ID)
	if err != nil {
		return err
	}

	return r.service.HandleSessionExpired(ctx, orderID)
}

func (r *StripeEventRouter) handlePaymentFailed(ctx context.Context, payload []byte) error {
	var intent paymentIntentPayload
	if err := json.Unmarshal(payload, &intent); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}

	orderID, err := parseOrderIDMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	reason := "payment_intent_failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}

	return r.service.HandlePaymentFailed(ctx, orderID, reason)
}

// resolveOrderID prefers the order_id metadata stamped on the session at
// creation and falls back to a session-ID lookup for sessions without it.
func (r *StripeEventRouter) resolveOrderID(ctx context.Context, metadata map[string]string, sessionID string) (uuid.UUID, error) {
	if orderID, err := parseOrderIDMetadata(metadata); err == nil {
		return orderID, nil
	}

	order, err := r.orders.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve order for session %s: %w", sessionID, err)
	}
	return order.ID, nil
}

func parseOrderIDMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["order_id"]
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("missing order_id metadata")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order_id metadata: %w", err)
	}
	return orderID, nil
}
