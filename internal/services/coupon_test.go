package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/pricing"
)

type fakeCouponStore struct {
	coupons     map[string]*db.Coupon
	redemptions map[string]int64
	reads       int
}

func (s *fakeCouponStore) GetByCode(_ context.Context, code string) (*db.Coupon, error) {
	s.reads++
	if coupon, ok := s.coupons[code]; ok {
		return coupon, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeCouponStore) CountUserRedemptions(_ context.Context, userID uuid.UUID, code string) (int64, error) {
	return s.redemptions[userID.String()+":"+code], nil
}

type fakePurchaseCounter struct {
	purchases map[uuid.UUID]int64
}

func (s *fakePurchaseCounter) CountNonCancelledByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	return s.purchases[userID], nil
}

func TestCouponService_Validate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	returningUser := uuid.New()

	coupons := &fakeCouponStore{
		coupons: map[string]*db.Coupon{
			"SAVE10": {
				ID:               uuid.New(),
				Code:             "SAVE10",
				DiscountType:     models.DiscountPercentage,
				Value:            10,
				MinPurchaseCents: 5000,
				Active:           true,
			},
			"WELCOME": {
				ID:                uuid.New(),
				Code:              "WELCOME",
				DiscountType:      models.DiscountFixed,
				Value:             2000,
				FirstPurchaseOnly: true,
				Active:            true,
			},
			"EXPIRED": {
				ID:           uuid.New(),
				Code:         "EXPIRED",
				DiscountType: models.DiscountFixed,
				Value:        1000,
				ValidUntil:   time.Now().Add(-time.Hour),
				Active:       true,
			},
		},
		redemptions: map[string]int64{},
	}
	orders := &fakePurchaseCounter{purchases: map[uuid.UUID]int64{returningUser: 3}}

	service := NewCouponService(coupons, orders, nil, logging.Nop())

	tests := []struct {
		name         string
		input        ValidateCouponInput
		wantDiscount int64
		wantReason   string
	}{
		{
			name:         "valid percentage coupon",
			input:        ValidateCouponInput{UserID: userID, Code: "save10", SubtotalCents: 15000},
			wantDiscount: 1500,
		},
		{
			name:       "unknown code",
			input:      ValidateCouponInput{UserID: userID, Code: "NOPE", SubtotalCents: 15000},
			wantReason: ReasonCouponNotFound,
		},
		{
			name:       "blank code",
			input:      ValidateCouponInput{UserID: userID, Code: "  ", SubtotalCents: 15000},
			wantReason: ReasonCouponNotFound,
		},
		{
			name:       "below minimum purchase",
			input:      ValidateCouponInput{UserID: userID, Code: "SAVE10", SubtotalCents: 3000},
			wantReason: pricing.ReasonCouponMinPurchase,
		},
		{
			name:       "expired coupon",
			input:      ValidateCouponInput{UserID: userID, Code: "EXPIRED", SubtotalCents: 15000},
			wantReason: pricing.ReasonCouponExpired,
		},
		{
			name:         "first purchase coupon for new user",
			input:        ValidateCouponInput{UserID: userID, Code: "WELCOME", SubtotalCents: 15000},
			wantDiscount: 2000,
		},
		{
			name:       "first purchase coupon for returning user",
			input:      ValidateCouponInput{UserID: returningUser, Code: "WELCOME", SubtotalCents: 15000},
			wantReason: pricing.ReasonCouponFirstPurchase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := service.Validate(context.Background(), tt.input)

			if tt.wantReason != "" {
				rejection, ok := pricing.AsRejection(err)
				if !ok {
					t.Fatalf("expected rejection, got %v", err)
				}
				if rejection.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", rejection.Reason, tt.wantReason)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.DiscountCents != tt.wantDiscount {
				t.Errorf("DiscountCents = %d, want %d", result.DiscountCents, tt.wantDiscount)
			}
		})
	}
}

func TestCouponService_ValidateCountsPerUserRedemptions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	coupons := &fakeCouponStore{
		coupons: map[string]*db.Coupon{
			"ONCE": {
				ID:           uuid.New(),
				Code:         "ONCE",
				DiscountType: models.DiscountFixed,
				Value:        500,
				PerUserLimit: 1,
				Active:       true,
			},
		},
		redemptions: map[string]int64{userID.String() + ":ONCE": 1},
	}
	service := NewCouponService(coupons, &fakePurchaseCounter{purchases: map[uuid.UUID]int64{}}, nil, logging.Nop())

	_, err := service.Validate(context.Background(), ValidateCouponInput{
		UserID: userID, Code: "ONCE", SubtotalCents: 10000,
	})
	rejection, ok := pricing.AsRejection(err)
	if !ok || rejection.Reason != pricing.ReasonCouponPerUserLimit {
		t.Fatalf("expected per-user limit rejection, got %v", err)
	}
}

func TestCouponService_ValidateUsesCache(t *testing.T) {
	t.Parallel()

	coupons := &fakeCouponStore{
		coupons: map[string]*db.Coupon{
			"SAVE10": {
				ID:           uuid.New(),
				Code:         "SAVE10",
				DiscountType: models.DiscountPercentage,
				Value:        10,
				Active:       true,
			},
		},
		redemptions: map[string]int64{},
	}
	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = provider.Close() })

	service := NewCouponService(coupons, &fakePurchaseCounter{purchases: map[uuid.UUID]int64{}}, provider, logging.Nop())

	ctx := context.Background()
	input := ValidateCouponInput{Code: "SAVE10", SubtotalCents: 10000}

	first, err := service.Validate(ctx, input)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if first.DiscountCents != 1000 {
		t.Errorf("DiscountCents = %d, want 1000", first.DiscountCents)
	}

	second, err := service.Validate(ctx, input)
	if err != nil {
		t.Fatalf("second Validate() error = %v", err)
	}
	if second.DiscountCents != 1000 {
		t.Errorf("cached DiscountCents = %d, want 1000", second.DiscountCents)
	}
	if coupons.reads != 1 {
		t.Errorf("store reads = %d, want 1 (second lookup should hit the cache)", coupons.reads)
	}
}
