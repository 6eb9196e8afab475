package pricing

import (
	"math"

	"github.com/sunushop/sunushop/internal/models"
)

// CalculateTax returns the tax amount on a taxable base. With
// tax-inclusive pricing the tax already sits inside the base, so it is
// backed out instead of added on top to avoid double-charging; the
// returned amount is then informational and must not be re-added by the
// caller.
func CalculateTax(taxableCents int64, settings models.Settings) int64 {
	if !settings.TaxEnabled || settings.TaxRatePercent <= 0 || taxableCents <= 0 {
		return 0
	}

	rate := settings.TaxRatePercent
	if settings.PricesIncludeTax {
		return int64(math.Round(float64(taxableCents) * rate / (100 + rate)))
	}
	return int64(math.Round(float64(taxableCents) * rate / 100))
}
