package zonefile

// Package zonefile provides shipping zone file validation.

import (
	"fmt"
	"regexp"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

var countryCodeRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)

// IsValidCountryCode validates an ISO 3166-1 alpha-2 country code shape.
func IsValidCountryCode(code string) bool {
	return countryCodeRegex.MatchString(code)
}

func (v *Validator) Validate(file *ZoneFile) error {
	if len(file.Zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}

	names := make(map[string]bool)
	for i, zone := range file.Zones {
		if err := v.validateZone(&zone); err != nil {
			return fmt.Errorf("zone %d validation failed: %w", i, err)
		}

		key := strings.ToLower(strings.TrimSpace(zone.Name))
		if names[key] {
			return fmt.Errorf("duplicate zone name: %s", zone.Name)
		}
		names[key] = true
	}

	return nil
}

func (v *Validator) validateZone(zone *ZoneConfig) error {
	if strings.TrimSpace(zone.Name) == "" {
		return fmt.Errorf("zone name is required")
	}

	if len(zone.Countries) == 0 {
		return fmt.Errorf("at least one country is required")
	}

	for _, country := range zone.Countries {
		if !IsValidCountryCode(strings.TrimSpace(country)) {
			return fmt.Errorf("invalid country code: %s", country)
		}
	}

	if len(zone.Regions) > 0 && len(zone.Countries) != 1 {
		return fmt.Errorf("region-scoped zones must cover exactly one country")
	}

	for _, region := range zone.Regions {
		if strings.TrimSpace(region) == "" {
			return fmt.Errorf("region names cannot be blank")
		}
	}

	if zone.ShippingCostCents < 0 {
		return fmt.Errorf("shipping cost must be zero or positive")
	}

	if zone.FreeShippingThresholdCents < 0 {
		return fmt.Errorf("free shipping threshold must be zero or positive")
	}

	if zone.Priority < 0 {
		return fmt.Errorf("priority must be zero or positive")
	}

	if zone.EstimatedDaysMin < 0 || zone.EstimatedDaysMax < zone.EstimatedDaysMin {
		return fmt.Errorf("estimated delivery days range is invalid")
	}

	return nil
}
