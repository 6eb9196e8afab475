package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ShippingZone maps destination geography to a flat shipping cost.
// An empty Regions list means the zone covers the whole country; a zone
// with regions only matches when the destination region is listed.
// Lower Priority wins when several zones overlap.
type ShippingZone struct {
	ID                         uuid.UUID `json:"id"`
	Name                       string    `json:"name"`
	Countries                  []string  `json:"countries"`
	Regions                    []string  `json:"regions,omitempty"`
	ShippingCostCents          int64     `json:"shipping_cost_cents"`
	FreeShippingThresholdCents int64     `json:"free_shipping_threshold_cents"`
	EstimatedDaysMin           int       `json:"estimated_days_min"`
	EstimatedDaysMax           int       `json:"estimated_days_max"`
	Priority                   int       `json:"priority"`
	Active                     bool      `json:"active"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// MatchesCountry reports whether the zone covers the given ISO country code.
func (z *ShippingZone) MatchesCountry(country string) bool {
	for _, c := range z.Countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// MatchesRegion reports whether the zone lists the given region explicitly.
func (z *ShippingZone) MatchesRegion(region string) bool {
	for _, r := range z.Regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}
