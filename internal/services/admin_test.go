package services

import (
	"testing"
	"time"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/models"
)

func TestValidateCoupon(t *testing.T) {
	t.Parallel()

	valid := func() *db.Coupon {
		return &db.Coupon{
			Code:         "SAVE10",
			DiscountType: models.DiscountPercentage,
			Value:        10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*db.Coupon)
		wantErr bool
	}{
		{
			name:   "valid percentage",
			mutate: func(c *db.Coupon) {},
		},
		{
			name: "valid fixed",
			mutate: func(c *db.Coupon) {
				c.DiscountType = models.DiscountFixed
				c.Value = 2000
			},
		},
		{
			name:    "missing code",
			mutate:  func(c *db.Coupon) { c.Code = "" },
			wantErr: true,
		},
		{
			name:    "percentage over 100",
			mutate:  func(c *db.Coupon) { c.Value = 150 },
			wantErr: true,
		},
		{
			name:    "zero value",
			mutate:  func(c *db.Coupon) { c.Value = 0 },
			wantErr: true,
		},
		{
			name:    "unknown discount type",
			mutate:  func(c *db.Coupon) { c.DiscountType = "bogus" },
			wantErr: true,
		},
		{
			name:    "negative usage limit",
			mutate:  func(c *db.Coupon) { c.UsageLimit = -1 },
			wantErr: true,
		},
		{
			name: "window ends before it starts",
			mutate: func(c *db.Coupon) {
				c.ValidFrom = time.Now()
				c.ValidUntil = time.Now().Add(-time.Hour)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			coupon := valid()
			tt.mutate(coupon)

			err := validateCoupon(coupon)
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateZone(t *testing.T) {
	t.Parallel()

	zone := &db.ShippingZone{
		Name:              "Dakar Metro",
		Countries:         []string{" sn ", "ml"},
		ShippingCostCents: 1000,
	}
	if err := validateZone(zone); err != nil {
		t.Fatalf("validateZone() error = %v", err)
	}
	if zone.Countries[0] != "SN" || zone.Countries[1] != "ML" {
		t.Errorf("countries not normalized: %v", zone.Countries)
	}

	if err := validateZone(&db.ShippingZone{Name: "No Countries"}); err == nil {
		t.Error("expected error for zone without countries")
	}
	if err := validateZone(&db.ShippingZone{Name: "Negative", Countries: []string{"SN"}, ShippingCostCents: -1}); err == nil {
		t.Error("expected error for negative cost")
	}
}
