package services

import (
	"context"
	"strings"
	"testing"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/pricing"
)

type fakeZoneLister struct {
	zones []db.ShippingZone
}

func (s *fakeZoneLister) ListActiveByCountry(_ context.Context, country string) ([]db.ShippingZone, error) {
	matched := make([]db.ShippingZone, 0, len(s.zones))
	for _, zone := range s.zones {
		if zone.Active && zone.MatchesCountry(country) {
			matched = append(matched, zone)
		}
	}
	return matched, nil
}

func TestShippingService_Quote(t *testing.T) {
	t.Parallel()

	zones := &fakeZoneLister{zones: []db.ShippingZone{
		{
			Name:                       "Dakar Metro",
			Countries:                  []string{"SN"},
			Regions:                    []string{"Dakar"},
			ShippingCostCents:          1000,
			FreeShippingThresholdCents: 20000,
			Priority:                   1,
			Active:                     true,
		},
		{
			Name:              "Senegal National",
			Countries:         []string{"SN"},
			ShippingCostCents: 2500,
			Priority:          5,
			Active:            true,
		},
	}}
	service := NewShippingService(zones, logging.Nop())

	tests := []struct {
		name     string
		country  string
		region   string
		subtotal int64
		wantCost int64
		wantFree bool
		wantZone string
	}{
		{
			name:     "region match below threshold",
			country:  "SN",
			region:   "Dakar",
			subtotal: 12000,
			wantCost: 1000,
			wantZone: "Dakar Metro",
		},
		{
			name:     "region match above threshold",
			country:  "SN",
			region:   "Dakar",
			subtotal: 25000,
			wantCost: 0,
			wantFree: true,
			wantZone: "Dakar Metro",
		},
		{
			name:     "country fallback",
			country:  "SN",
			region:   "Thies",
			subtotal: 12000,
			wantCost: 2500,
			wantZone: "Senegal National",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			quote, err := service.Quote(context.Background(), tt.country, tt.region, tt.subtotal)
			if err != nil {
				t.Fatalf("Quote() error = %v", err)
			}
			if quote.ShippingCostCents != tt.wantCost {
				t.Errorf("ShippingCostCents = %d, want %d", quote.ShippingCostCents, tt.wantCost)
			}
			if quote.IsFreeShipping != tt.wantFree {
				t.Errorf("IsFreeShipping = %v, want %v", quote.IsFreeShipping, tt.wantFree)
			}
			if quote.Zone.Name != tt.wantZone {
				t.Errorf("Zone.Name = %q, want %q", quote.Zone.Name, tt.wantZone)
			}
		})
	}
}

func TestShippingService_QuoteNoZone(t *testing.T) {
	t.Parallel()

	service := NewShippingService(&fakeZoneLister{}, logging.Nop())

	_, err := service.Quote(context.Background(), "ML", "", 10000)
	rejection, ok := pricing.AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rejection.Reason != pricing.ReasonNoShippingZone {
		t.Errorf("Reason = %q, want %q", rejection.Reason, pricing.ReasonNoShippingZone)
	}
	if !strings.Contains(rejection.Message, "no shipping") {
		t.Errorf("unexpected message: %q", rejection.Message)
	}
}
