package zonefile

import (
	"testing"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid zone file",
			yaml: `
zones:
  - name: "Dakar Metro"
    countries: ["SN"]
    regions: ["Dakar"]
    shipping_cost_cents: 1000
    free_shipping_threshold_cents: 20000
    priority: 1
  - name: "Senegal National"
    countries: ["SN"]
    shipping_cost_cents: 2500
    priority: 5
    active: false
`,
			wantErr: false,
		},
		{
			name:    "invalid yaml",
			yaml:    "invalid: yaml: content:",
			wantErr: true,
		},
	}

	parser := NewParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.ParseFromString(tt.yaml)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if file == nil {
				t.Error("expected zone file but got nil")
				return
			}

			if len(file.Zones) != 2 {
				t.Fatalf("expected 2 zones, got %d", len(file.Zones))
			}

			if file.Zones[0].Name != "Dakar Metro" {
				t.Errorf("expected zone name 'Dakar Metro', got '%s'", file.Zones[0].Name)
			}

			if !file.Zones[0].IsActive() {
				t.Error("zone without active flag should default to enabled")
			}

			if file.Zones[1].IsActive() {
				t.Error("zone with active: false should be disabled")
			}
		})
	}
}
