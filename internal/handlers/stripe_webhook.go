package handlers

import (
	"net/http"
	"time"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/payments"
)

// stripeWebhookIdempotencyTTL is how long webhook event IDs are kept for deduplication
const stripeWebhookIdempotencyTTL = 24 * time.Hour

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	event, err := payments.ReadWebhookEvent(r, h.config.StripeWebhookSecret)
	if err != nil {
		logger.Error("failed to read Stripe webhook payload", "error", err)
		h.writeError(w, r, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if event == nil || event.ID == "" {
		logger.Error("missing Stripe event ID")
		h.writeError(w, r, http.StatusBadRequest, "missing event ID")
		return
	}

	cacheKey := cache.WebhookKey("stripe", event.ID)
	_, err = h.cacheProvider.Get(ctx, cacheKey)
	if err == nil {
		logger.Info("webhook already processed", "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.stripeRouter == nil {
		logger.Error("stripe event router not configured")
		h.writeError(w, r, http.StatusInternalServerError, "webhook handler not configured")
		return
	}

	processErr := h.stripeRouter.Handle(ctx, event)
	if processErr == nil {
		if err := h.cacheProvider.Set(ctx, cacheKey, "processed", stripeWebhookIdempotencyTTL); err != nil {
			logger.Error("failed to mark webhook as processed in cache", "error", err)
		}
	}
	if processErr != nil {
		logger.Error("failed to process Stripe webhook", "error", processErr, "type", event.Type)
		h.writeError(w, r, http.StatusInternalServerError, "processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}
