package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/observability"
	"github.com/sunushop/sunushop/internal/pricing"
)

// ReasonCouponNotFound covers both unknown and deleted codes so the
// response never leaks which codes exist.
const ReasonCouponNotFound = "coupon_not_found"

const couponCacheTTL = 5 * time.Minute

type couponStore interface {
	GetByCode(ctx context.Context, code string) (*db.Coupon, error)
	CountUserRedemptions(ctx context.Context, userID uuid.UUID, code string) (int64, error)
}

type purchaseCounter interface {
	CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type CouponService struct {
	coupons couponStore
	orders  purchaseCounter
	cache   cache.Provider
	logger  *slog.Logger
}

func NewCouponService(coupons couponStore, orders purchaseCounter, cacheProvider cache.Provider, logger *slog.Logger) *CouponService {
	return &CouponService{coupons: coupons, orders: orders, cache: cacheProvider, logger: logger}
}

func (s *CouponService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// CouponValidation is the successful outcome of a coupon check. The
// discount is computed but nothing is consumed; usage counts only move
// when an order commits.
type CouponValidation struct {
	Coupon        *db.Coupon
	DiscountCents int64
}

type ValidateCouponInput struct {
	UserID         uuid.UUID
	Code           string
	SubtotalCents  int64
	ItemCategories []string
}

func (s *CouponService) Validate(ctx context.Context, input ValidateCouponInput) (*CouponValidation, error) {
	span := sentry.StartSpan(
		ctx,
		"service.coupon.validate",
		sentry.WithOpName("service.coupon"),
		sentry.WithDescription("Validate"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.Count("coupon.validate.requested", 1)

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, &pricing.Rejection{Reason: ReasonCouponNotFound, Message: "coupon code is required"}
	}

	coupon, err := s.lookupCoupon(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			meter.Count("coupon.validate.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", ReasonCouponNotFound),
			))
			return nil, &pricing.Rejection{Reason: ReasonCouponNotFound, Message: "invalid coupon code"}
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	evalCtx := pricing.CouponContext{
		Now:            time.Now(),
		SubtotalCents:  input.SubtotalCents,
		ItemCategories: input.ItemCategories,
	}

	if input.UserID != uuid.Nil {
		redemptions, err := s.coupons.CountUserRedemptions(ctx, input.UserID, code)
		if err != nil {
			return nil, fmt.Errorf("failed to count coupon redemptions: %w", err)
		}
		evalCtx.UserRedemptions = redemptions

		if coupon.FirstPurchaseOnly {
			purchases, err := s.orders.CountNonCancelledByUser(ctx, input.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to count prior purchases: %w", err)
			}
			evalCtx.PriorPurchases = purchases
		}
	}

	discount, err := pricing.EvaluateCoupon(coupon, evalCtx)
	if err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			meter.Count("coupon.validate.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", rejection.Reason),
			))
			s.loggerFromContext(ctx).Info("coupon rejected", "code", code, "reason", rejection.Reason)
		}
		return nil, err
	}

	meter.Count("coupon.validate.accepted", 1)
	return &CouponValidation{Coupon: coupon, DiscountCents: discount}, nil
}

// lookupCoupon serves the coupon row through the cache. A cached copy's
// usage count may lag by up to the TTL; the consume guard at checkout
// stays authoritative for the global limit.
func (s *CouponService) lookupCoupon(ctx context.Context, code string) (*db.Coupon, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cache.CouponKey(code)); err == nil {
			var coupon db.Coupon
			if unmarshalErr := json.Unmarshal([]byte(cached), &coupon); unmarshalErr == nil {
				return &coupon, nil
			}
			s.loggerFromContext(ctx).Warn("discarding unreadable cached coupon", "code", code)
		}
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cacheCoupon(ctx, coupon)
	return coupon, nil
}

func (s *CouponService) cacheCoupon(ctx context.Context, coupon *db.Coupon) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(coupon)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.CouponKey(coupon.Code), string(payload), couponCacheTTL); err != nil {
		s.loggerFromContext(ctx).Warn("failed to cache coupon", "error", err, "code", coupon.Code)
	}
}
