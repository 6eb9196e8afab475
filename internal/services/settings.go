package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
)

const settingsCacheTTL = 5 * time.Minute

type settingsStore interface {
	Get(ctx context.Context) (*db.Settings, error)
	Save(ctx context.Context, settings *db.Settings) error
}

// SettingsService serves the marketplace settings singleton with a
// short cache in front, since every pricing computation reads it.
type SettingsService struct {
	store  settingsStore
	cache  cache.Provider
	logger *slog.Logger
}

func NewSettingsService(store settingsStore, cacheProvider cache.Provider, logger *slog.Logger) *SettingsService {
	return &SettingsService{store: store, cache: cacheProvider, logger: logger}
}

func (s *SettingsService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cache.SettingsKey()); err == nil {
			var settings models.Settings
			unmarshalErr := json.Unmarshal([]byte(cached), &settings)
			if unmarshalErr == nil {
				return settings, nil
			}
			s.loggerFromContext(ctx).Warn("discarding unreadable cached settings", "error", unmarshalErr)
		}
	}

	settings, err := s.store.Get(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	s.cacheSettings(ctx, settings)
	return *settings, nil
}

func (s *SettingsService) Update(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if err := validateSettings(&settings); err != nil {
		return models.Settings{}, err
	}

	if err := s.store.Save(ctx, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.SettingsKey()); err != nil {
			s.loggerFromContext(ctx).Warn("failed to invalidate settings cache", "error", err)
		}
	}

	s.loggerFromContext(ctx).Info("settings updated",
		"tax_enabled", settings.TaxEnabled,
		"tax_rate_percent", settings.TaxRatePercent,
		"prices_include_tax", settings.PricesIncludeTax)
	return settings, nil
}

func (s *SettingsService) cacheSettings(ctx context.Context, settings *models.Settings) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.SettingsKey(), string(payload), settingsCacheTTL); err != nil {
		s.loggerFromContext(ctx).Warn("failed to cache settings", "error", err)
	}
}

func validateSettings(settings *models.Settings) error {
	if settings.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if settings.TaxRatePercent < 0 || settings.TaxRatePercent > 100 {
		return fmt.Errorf("tax rate must be between 0 and 100")
	}
	if settings.CommissionRatePercent < 0 || settings.CommissionRatePercent > 100 {
		return fmt.Errorf("commission rate must be between 0 and 100")
	}
	if settings.LoyaltyEarnBaseCents <= 0 {
		return fmt.Errorf("loyalty earn base must be positive")
	}
	return nil
}
