package zonefile

// Package zonefile provides shipping zone YAML parsing functionality.

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type ZoneFile struct {
	Zones []ZoneConfig `yaml:"zones"`
}

type ZoneConfig struct {
	Name                       string   `yaml:"name"`
	Countries                  []string `yaml:"countries"`
	Regions                    []string `yaml:"regions"`
	ShippingCostCents          int64    `yaml:"shipping_cost_cents"`
	FreeShippingThresholdCents int64    `yaml:"free_shipping_threshold_cents"`
	EstimatedDaysMin           int      `yaml:"estimated_days_min"`
	EstimatedDaysMax           int      `yaml:"estimated_days_max"`
	Priority                   int      `yaml:"priority"`
	Active                     *bool    `yaml:"active"`
}

// IsActive treats a missing active flag as enabled.
func (z ZoneConfig) IsActive() bool {
	return z.Active == nil || *z.Active
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*ZoneFile, error) {
	var file ZoneFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &file, nil
}

func (p *Parser) ParseFromString(content string) (*ZoneFile, error) {
	return p.Parse([]byte(content))
}
