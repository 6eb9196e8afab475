package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sunushop/sunushop/internal/models"
)

// SettingsStore persists the single marketplace settings row.
type SettingsStore struct {
	pool *pgxpool.Pool
}

func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// Get returns the stored settings, falling back to defaults when the
// row has never been saved.
func (s *SettingsStore) Get(ctx context.Context) (*Settings, error) {
	query := `
		SELECT currency, tax_enabled, tax_rate_percent, prices_include_tax,
			commission_rate_percent, loyalty_earn_base_cents
		FROM settings
		WHERE id = 1
	`
	var settings Settings
	err := s.pool.QueryRow(ctx, query).Scan(
		&settings.Currency, &settings.TaxEnabled, &settings.TaxRatePercent,
		&settings.PricesIncludeTax, &settings.CommissionRatePercent,
		&settings.LoyaltyEarnBaseCents,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		defaults := models.DefaultSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings *Settings) error {
	query := `
		INSERT INTO settings (id, currency, tax_enabled, tax_rate_percent, prices_include_tax,
			commission_rate_percent, loyalty_earn_base_cents)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			currency = EXCLUDED.currency,
			tax_enabled = EXCLUDED.tax_enabled,
			tax_rate_percent = EXCLUDED.tax_rate_percent,
			prices_include_tax = EXCLUDED.prices_include_tax,
			commission_rate_percent = EXCLUDED.commission_rate_percent,
			loyalty_earn_base_cents = EXCLUDED.loyalty_earn_base_cents
	`
	_, err := s.pool.Exec(ctx, query,
		settings.Currency, settings.TaxEnabled, settings.TaxRatePercent,
		settings.PricesIncludeTax, settings.CommissionRatePercent,
		settings.LoyaltyEarnBaseCents)
	return err
}
