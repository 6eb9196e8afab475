package config

import (
	"log/slog"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:           "postgres://localhost:5432/sunushop",
		JWTSecret:             strings.Repeat("s", 32),
		CacheProvider:         "memory",
		RedisConnectionString: "redis://localhost:6379/0",
		LogLevel:              slog.LevelInfo,
		LogFormat:             "text",
		Port:                  "8080",
	}
}

func TestValidateJWTSecretLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{
			name:    "valid 32-byte secret",
			secret:  strings.Repeat("s", 32),
			wantErr: false,
		},
		{
			name:    "invalid short secret",
			secret:  "short",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.JWTSecret = tt.secret

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateStripeKeysSetTogether(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.StripeSecretKey = "sk_test_123"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "STRIPE_WEBHOOK_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.StripeWebhookSecret = "whsec_123"
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateEmailProviderRequiresKeyAndFrom(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.EmailProvider = "resend"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "RESEND_API_KEY") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.ResendAPIKey = "re_123"
	err = cfg.validate()
	if err == nil || !strings.Contains(err.Error(), "EMAIL_FROM") {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.EmailFrom = "orders@sunushop.sn"
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "empty is allowed",
			baseURL: "",
			wantErr: false,
		},
		{
			name:    "https is allowed",
			baseURL: "https://shop.example.com",
			wantErr: false,
		},
		{
			name:    "http localhost is allowed",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "http outside localhost is rejected",
			baseURL: "http://shop.example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.BaseURL = tt.baseURL

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}
