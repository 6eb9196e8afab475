package pricing

import (
	"sort"
	"strings"

	"github.com/sunushop/sunushop/internal/models"
)

const ReasonNoShippingZone = "no_shipping_zone"

// ShippingQuote is the resolved cost plus the derived UI metadata.
// RemainingForFreeShippingCents is 0 when shipping is already free or
// the zone has no threshold configured.
type ShippingQuote struct {
	Zone                          *models.ShippingZone
	ShippingCostCents             int64
	IsFreeShipping                bool
	RemainingForFreeShippingCents int64
}

// ResolveZone picks the zone for a destination: region-specific matches
// beat country-general ones, and within each group the lowest priority
// number wins. Inactive zones never match.
func ResolveZone(zones []models.ShippingZone, country, region string) (*models.ShippingZone, error) {
	country = strings.TrimSpace(country)
	region = strings.TrimSpace(region)

	candidates := make([]*models.ShippingZone, 0, len(zones))
	for i := range zones {
		zone := &zones[i]
		if zone.Active && zone.MatchesCountry(country) {
			candidates = append(candidates, zone)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	if region != "" {
		for _, zone := range candidates {
			if zone.MatchesRegion(region) {
				return zone, nil
			}
		}
	}

	// Fall back to country-wide zones; region-scoped zones only apply
	// to the regions they list.
	for _, zone := range candidates {
		if len(zone.Regions) == 0 {
			return zone, nil
		}
	}

	return nil, reject(ReasonNoShippingZone, "no shipping available for this location")
}

// QuoteShipping resolves the zone and applies its free-shipping
// threshold against the order subtotal.
func QuoteShipping(zones []models.ShippingZone, country, region string, subtotalCents int64) (ShippingQuote, error) {
	zone, err := ResolveZone(zones, country, region)
	if err != nil {
		return ShippingQuote{}, err
	}

	quote := ShippingQuote{
		Zone:              zone,
		ShippingCostCents: zone.ShippingCostCents,
	}

	if zone.FreeShippingThresholdCents > 0 {
		if subtotalCents >= zone.FreeShippingThresholdCents {
			quote.ShippingCostCents = 0
			quote.IsFreeShipping = true
		} else {
			quote.RemainingForFreeShippingCents = zone.FreeShippingThresholdCents - subtotalCents
		}
	}

	return quote, nil
}
