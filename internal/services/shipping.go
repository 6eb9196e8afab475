package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/pricing"
)

type zoneLister interface {
	ListActiveByCountry(ctx context.Context, country string) ([]db.ShippingZone, error)
}

type ShippingService struct {
	zones  zoneLister
	logger *slog.Logger
}

func NewShippingService(zones zoneLister, logger *slog.Logger) *ShippingService {
	return &ShippingService{zones: zones, logger: logger}
}

func (s *ShippingService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Quote resolves the destination's zone and prices shipping for the
// given subtotal.
func (s *ShippingService) Quote(ctx context.Context, country, region string, subtotalCents int64) (pricing.ShippingQuote, error) {
	zones, err := s.zones.ListActiveByCountry(ctx, country)
	if err != nil {
		return pricing.ShippingQuote{}, fmt.Errorf("failed to list shipping zones: %w", err)
	}

	quote, err := pricing.QuoteShipping(zones, country, region, subtotalCents)
	if err != nil {
		if rejection, ok := pricing.AsRejection(err); ok {
			s.loggerFromContext(ctx).Info("no shipping zone for destination",
				"country", country, "region", region, "reason", rejection.Reason)
		}
		return pricing.ShippingQuote{}, err
	}
	return quote, nil
}
