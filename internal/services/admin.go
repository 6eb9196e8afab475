package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/zonefile"
)

var ErrCouponCodeTaken = errors.New("a coupon with this code already exists")

// AdminService manages the pricing configuration surface: coupons,
// shipping zones and zone file imports.
type AdminService struct {
	coupons   *db.CouponStore
	zones     *db.ZoneStore
	parser    *zonefile.Parser
	validator *zonefile.Validator
	cache     cache.Provider
	logger    *slog.Logger
}

func NewAdminService(coupons *db.CouponStore, zones *db.ZoneStore, cacheProvider cache.Provider, logger *slog.Logger) *AdminService {
	return &AdminService{
		coupons:   coupons,
		zones:     zones,
		parser:    zonefile.NewParser(),
		validator: zonefile.NewValidator(),
		cache:     cacheProvider,
		logger:    logger,
	}
}

func (s *AdminService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *AdminService) ListCoupons(ctx context.Context, limit int) ([]*db.Coupon, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	coupons, err := s.coupons.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *AdminService) CreateCoupon(ctx context.Context, coupon *db.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := validateCoupon(coupon); err != nil {
		return err
	}

	if _, err := s.coupons.GetByCode(ctx, coupon.Code); err == nil {
		return ErrCouponCodeTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check existing coupon: %w", err)
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	s.loggerFromContext(ctx).Info("coupon created", "code", coupon.Code, "type", coupon.DiscountType)
	return nil
}

func (s *AdminService) UpdateCoupon(ctx context.Context, coupon *db.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := validateCoupon(coupon); err != nil {
		return err
	}

	if err := s.coupons.Update(ctx, coupon); err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	s.invalidateCoupon(ctx, coupon.Code)
	return nil
}

func (s *AdminService) SetCouponActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.coupons.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("failed to set coupon active state: %w", err)
	}

	if coupon, err := s.coupons.GetByID(ctx, id); err == nil {
		s.invalidateCoupon(ctx, coupon.Code)
	}
	return nil
}

func (s *AdminService) ListZones(ctx context.Context) ([]db.ShippingZone, error) {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

func (s *AdminService) CreateZone(ctx context.Context, zone *db.ShippingZone) error {
	if err := validateZone(zone); err != nil {
		return err
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return fmt.Errorf("failed to create zone: %w", err)
	}

	s.loggerFromContext(ctx).Info("shipping zone created", "name", zone.Name, "priority", zone.Priority)
	return nil
}

func (s *AdminService) UpdateZone(ctx context.Context, zone *db.ShippingZone) error {
	if err := validateZone(zone); err != nil {
		return err
	}
	if err := s.zones.Update(ctx, zone); err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	return nil
}

func (s *AdminService) SetZoneActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.zones.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("failed to set zone active state: %w", err)
	}
	return nil
}

// ImportZones parses, validates and persists a YAML zone file. The
// whole file is validated before any zone is written so a bad entry
// never leaves a partial import behind.
func (s *AdminService) ImportZones(ctx context.Context, content []byte) ([]db.ShippingZone, error) {
	file, err := s.parser.Parse(content)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(file); err != nil {
		return nil, err
	}

	imported := make([]db.ShippingZone, 0, len(file.Zones))
	for _, config := range file.Zones {
		zone := db.ShippingZone{
			Name:                       strings.TrimSpace(config.Name),
			Countries:                  normalizeCountries(config.Countries),
			Regions:                    config.Regions,
			ShippingCostCents:          config.ShippingCostCents,
			FreeShippingThresholdCents: config.FreeShippingThresholdCents,
			EstimatedDaysMin:           config.EstimatedDaysMin,
			EstimatedDaysMax:           config.EstimatedDaysMax,
			Priority:                   config.Priority,
			Active:                     config.IsActive(),
		}
		if err := s.zones.Create(ctx, &zone); err != nil {
			return nil, fmt.Errorf("failed to import zone %s: %w", zone.Name, err)
		}
		imported = append(imported, zone)
	}

	s.loggerFromContext(ctx).Info("zones imported", "count", len(imported))
	return imported, nil
}

// SeedZonesFromFile imports a zone file at startup when no zones exist
// yet. A populated table is left untouched.
func (s *AdminService) SeedZonesFromFile(ctx context.Context, content []byte) error {
	count, err := s.zones.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count zones: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.ImportZones(ctx, content); err != nil {
		return fmt.Errorf("failed to seed zones: %w", err)
	}
	return nil
}

func (s *AdminService) invalidateCoupon(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.CouponKey(code)); err != nil {
		s.loggerFromContext(ctx).Warn("failed to invalidate coupon cache", "error", err, "code", code)
	}
}

func validateCoupon(coupon *db.Coupon) error {
	if coupon.Code == "" {
		return fmt.Errorf("coupon code is required")
	}
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		if coupon.Value <= 0 || coupon.Value > 100 {
			return fmt.Errorf("percentage value must be between 1 and 100")
		}
	case models.DiscountFixed:
		if coupon.Value <= 0 {
			return fmt.Errorf("fixed discount must be positive")
		}
	default:
		return fmt.Errorf("discount type must be percentage or fixed")
	}
	if coupon.MinPurchaseCents < 0 || coupon.MaxDiscountCents < 0 {
		return fmt.Errorf("purchase and discount bounds cannot be negative")
	}
	if coupon.UsageLimit < 0 || coupon.PerUserLimit < 0 {
		return fmt.Errorf("usage limits cannot be negative")
	}
	if !coupon.ValidFrom.IsZero() && !coupon.ValidUntil.IsZero() && coupon.ValidUntil.Before(coupon.ValidFrom) {
		return fmt.Errorf("valid_until must be after valid_from")
	}
	return nil
}

func validateZone(zone *db.ShippingZone) error {
	if strings.TrimSpace(zone.Name) == "" {
		return fmt.Errorf("zone name is required")
	}
	if len(zone.Countries) == 0 {
		return fmt.Errorf("at least one country is required")
	}
	if zone.ShippingCostCents < 0 {
		return fmt.Errorf("shipping cost cannot be negative")
	}
	if zone.FreeShippingThresholdCents < 0 {
		return fmt.Errorf("free shipping threshold cannot be negative")
	}
	zone.Countries = normalizeCountries(zone.Countries)
	return nil
}

func normalizeCountries(countries []string) []string {
	normalized := make([]string, 0, len(countries))
	for _, country := range countries {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(country)))
	}
	return normalized
}
