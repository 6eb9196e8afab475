package cache

// Package cache provides short-lived caching for webhook idempotency
// keys and pricing configuration snapshots.

import (
	"context"
	"fmt"
	"time"
)

// Provider is the interface shared by the memory and redis caches.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func WebhookKey(source, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, eventID)
}

func SettingsKey() string {
	return "settings:current"
}

func CouponKey(code string) string {
	return "coupon:" + code
}
