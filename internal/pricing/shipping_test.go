package pricing

import (
	"testing"

	"github.com/sunushop/sunushop/internal/models"
)

func testZones() []models.ShippingZone {
	return []models.ShippingZone{
		{
			Name:                       "Dakar Metro",
			Countries:                  []string{"SN"},
			Regions:                    []string{"Dakar"},
			ShippingCostCents:          1000,
			FreeShippingThresholdCents: 20000,
			EstimatedDaysMin:           1,
			EstimatedDaysMax:           2,
			Priority:                   1,
			Active:                     true,
		},
		{
			Name:              "Senegal National",
			Countries:         []string{"SN"},
			ShippingCostCents: 2500,
			EstimatedDaysMin:  3,
			EstimatedDaysMax:  7,
			Priority:          5,
			Active:            true,
		},
		{
			Name:              "West Africa",
			Countries:         []string{"ML", "CI", "GN"},
			ShippingCostCents: 6000,
			EstimatedDaysMin:  7,
			EstimatedDaysMax:  14,
			Priority:          10,
			Active:            true,
		},
		{
			Name:              "Disabled Express",
			Countries:         []string{"SN"},
			ShippingCostCents: 500,
			Priority:          0,
			Active:            false,
		},
	}
}

func TestResolveZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		country  string
		region   string
		wantZone string
		wantErr  bool
	}{
		{
			name:     "region-specific match preferred",
			country:  "SN",
			region:   "Dakar",
			wantZone: "Dakar Metro",
		},
		{
			name:     "unlisted region falls back to country zone",
			country:  "SN",
			region:   "Thies",
			wantZone: "Senegal National",
		},
		{
			name:     "no region uses country zone",
			country:  "SN",
			wantZone: "Senegal National",
		},
		{
			name:     "country match is case-insensitive",
			country:  "sn",
			region:   "dakar",
			wantZone: "Dakar Metro",
		},
		{
			name:     "other covered country",
			country:  "ML",
			wantZone: "West Africa",
		},
		{
			name:    "uncovered country fails",
			country: "FR",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			zone, err := ResolveZone(testZones(), tc.country, tc.region)
			if tc.wantErr {
				if !IsRejection(err) {
					t.Fatalf("ResolveZone() error = %v, want rejection", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if zone.Name != tc.wantZone {
				t.Fatalf("ResolveZone() = %q, want %q", zone.Name, tc.wantZone)
			}
		})
	}
}

func TestQuoteShipping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		country       string
		region        string
		subtotalCents int64
		wantCost      int64
		wantFree      bool
		wantRemaining int64
	}{
		{
			name:          "threshold met is free",
			country:       "SN",
			region:        "Dakar",
			subtotalCents: 25000,
			wantCost:      0,
			wantFree:      true,
		},
		{
			name:          "threshold exactly met is free",
			country:       "SN",
			region:        "Dakar",
			subtotalCents: 20000,
			wantCost:      0,
			wantFree:      true,
		},
		{
			name:          "below threshold reports remaining",
			country:       "SN",
			region:        "Dakar",
			subtotalCents: 12000,
			wantCost:      1000,
			wantRemaining: 8000,
		},
		{
			name:          "zone without threshold never free",
			country:       "SN",
			subtotalCents: 1_000_000,
			wantCost:      2500,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			quote, err := QuoteShipping(testZones(), tc.country, tc.region, tc.subtotalCents)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.ShippingCostCents != tc.wantCost {
				t.Fatalf("cost = %d, want %d", quote.ShippingCostCents, tc.wantCost)
			}
			if quote.IsFreeShipping != tc.wantFree {
				t.Fatalf("isFree = %v, want %v", quote.IsFreeShipping, tc.wantFree)
			}
			if quote.RemainingForFreeShippingCents != tc.wantRemaining {
				t.Fatalf("remaining = %d, want %d", quote.RemainingForFreeShippingCents, tc.wantRemaining)
			}
		})
	}
}

func TestQuoteShippingDeterministic(t *testing.T) {
	t.Parallel()

	first, err := QuoteShipping(testZones(), "SN", "Dakar", 12000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := QuoteShipping(testZones(), "SN", "Dakar", 12000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Zone.Name != first.Zone.Name || again.ShippingCostCents != first.ShippingCostCents {
			t.Fatalf("resolution not deterministic: got %q/%d then %q/%d",
				first.Zone.Name, first.ShippingCostCents, again.Zone.Name, again.ShippingCostCents)
		}
	}
}
