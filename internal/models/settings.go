package models

import "time"

// Settings is the process-wide marketplace configuration singleton.
// It is read on every pricing computation and mutated only through the
// admin settings endpoint.
type Settings struct {
	Currency              string    `json:"currency"`
	TaxEnabled            bool      `json:"tax_enabled"`
	TaxRatePercent        float64   `json:"tax_rate_percent"`
	PricesIncludeTax      bool      `json:"prices_include_tax"`
	CommissionRatePercent float64   `json:"commission_rate_percent"`
	LoyaltyEarnBaseCents  int64     `json:"loyalty_earn_base_cents"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DefaultSettings returns the configuration used until an administrator
// saves one.
func DefaultSettings() Settings {
	return Settings{
		Currency:             "xof",
		TaxEnabled:           true,
		TaxRatePercent:       18,
		PricesIncludeTax:     false,
		LoyaltyEarnBaseCents: 100,
	}
}
