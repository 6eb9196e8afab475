package zonefile

import "testing"

func validZone() ZoneConfig {
	return ZoneConfig{
		Name:                       "Dakar Metro",
		Countries:                  []string{"SN"},
		Regions:                    []string{"Dakar"},
		ShippingCostCents:          1000,
		FreeShippingThresholdCents: 20000,
		Priority:                   1,
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ZoneFile)
		wantErr bool
	}{
		{
			name:    "valid file",
			mutate:  func(f *ZoneFile) {},
			wantErr: false,
		},
		{
			name:    "no zones",
			mutate:  func(f *ZoneFile) { f.Zones = nil },
			wantErr: true,
		},
		{
			name:    "missing name",
			mutate:  func(f *ZoneFile) { f.Zones[0].Name = "  " },
			wantErr: true,
		},
		{
			name: "duplicate name ignoring case",
			mutate: func(f *ZoneFile) {
				dup := validZone()
				dup.Name = "dakar metro"
				f.Zones = append(f.Zones, dup)
			},
			wantErr: true,
		},
		{
			name:    "no countries",
			mutate:  func(f *ZoneFile) { f.Zones[0].Countries = nil },
			wantErr: true,
		},
		{
			name:    "bad country code",
			mutate:  func(f *ZoneFile) { f.Zones[0].Countries = []string{"Senegal"} },
			wantErr: true,
		},
		{
			name:    "regions with multiple countries",
			mutate:  func(f *ZoneFile) { f.Zones[0].Countries = []string{"SN", "ML"} },
			wantErr: true,
		},
		{
			name:    "blank region",
			mutate:  func(f *ZoneFile) { f.Zones[0].Regions = []string{""} },
			wantErr: true,
		},
		{
			name:    "negative shipping cost",
			mutate:  func(f *ZoneFile) { f.Zones[0].ShippingCostCents = -1 },
			wantErr: true,
		},
		{
			name:    "negative threshold",
			mutate:  func(f *ZoneFile) { f.Zones[0].FreeShippingThresholdCents = -1 },
			wantErr: true,
		},
		{
			name:    "zero cost is allowed",
			mutate:  func(f *ZoneFile) { f.Zones[0].ShippingCostCents = 0 },
			wantErr: false,
		},
	}

	validator := NewValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file := &ZoneFile{Zones: []ZoneConfig{validZone()}}
			tt.mutate(file)

			err := validator.Validate(file)
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
