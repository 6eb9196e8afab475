package services

import (
	"context"
	"testing"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
)

type fakeSettingsStore struct {
	settings *models.Settings
	reads    int
}

func (s *fakeSettingsStore) Get(_ context.Context) (*db.Settings, error) {
	s.reads++
	if s.settings == nil {
		defaults := models.DefaultSettings()
		return &defaults, nil
	}
	copied := *s.settings
	return &copied, nil
}

func (s *fakeSettingsStore) Save(_ context.Context, settings *db.Settings) error {
	copied := *settings
	s.settings = &copied
	return nil
}

func newSettingsService(t *testing.T, store settingsStore) *SettingsService {
	t.Helper()
	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = provider.Close() })
	return NewSettingsService(store, provider, logging.Nop())
}

func TestSettingsService_GetUsesCache(t *testing.T) {
	t.Parallel()

	store := &fakeSettingsStore{}
	service := newSettingsService(t, store)

	ctx := context.Background()
	first, err := service.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.Currency != "xof" {
		t.Errorf("Currency = %q, want %q", first.Currency, "xof")
	}

	if _, err := service.Get(ctx); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if store.reads != 1 {
		t.Errorf("store reads = %d, want 1 (second read should hit the cache)", store.reads)
	}
}

func TestSettingsService_UpdateInvalidatesCache(t *testing.T) {
	t.Parallel()

	store := &fakeSettingsStore{}
	service := newSettingsService(t, store)
	ctx := context.Background()

	if _, err := service.Get(ctx); err != nil {
		t.Fatal(err)
	}

	updated := models.DefaultSettings()
	updated.TaxRatePercent = 10
	if _, err := service.Update(ctx, updated); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	settings, err := service.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.TaxRatePercent != 10 {
		t.Errorf("TaxRatePercent = %v, want 10 after update", settings.TaxRatePercent)
	}
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	t.Parallel()

	service := newSettingsService(t, &fakeSettingsStore{})
	ctx := context.Background()

	bad := models.DefaultSettings()
	bad.TaxRatePercent = 120
	if _, err := service.Update(ctx, bad); err == nil {
		t.Error("expected error for tax rate over 100")
	}

	bad = models.DefaultSettings()
	bad.LoyaltyEarnBaseCents = 0
	if _, err := service.Update(ctx, bad); err == nil {
		t.Error("expected error for zero earn base")
	}

	bad = models.DefaultSettings()
	bad.Currency = ""
	if _, err := service.Update(ctx, bad); err == nil {
		t.Error("expected error for missing currency")
	}
}
