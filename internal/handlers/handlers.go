package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/config"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/services"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP surface of the marketplace API.
type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	cacheProvider   cache.Provider
	authService     *services.AuthService
	catalogService  *services.CatalogService
	couponService   *services.CouponService
	loyaltyService  *services.LoyaltyService
	shippingService *services.ShippingService
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
	settingsService *services.SettingsService
	adminService    *services.AdminService
	stripeRouter    *StripeEventRouter
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	CacheProvider   cache.Provider
	AuthService     *services.AuthService
	CatalogService  *services.CatalogService
	CouponService   *services.CouponService
	LoyaltyService  *services.LoyaltyService
	ShippingService *services.ShippingService
	CheckoutService *services.CheckoutService
	OrderService    *services.OrderService
	SettingsService *services.SettingsService
	AdminService    *services.AdminService
	StripeRouter    *StripeEventRouter
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.CatalogService == nil {
		return nil, fmt.Errorf("handlers dependencies: catalogService is required")
	}
	if deps.CouponService == nil {
		return nil, fmt.Errorf("handlers dependencies: couponService is required")
	}
	if deps.LoyaltyService == nil {
		return nil, fmt.Errorf("handlers dependencies: loyaltyService is required")
	}
	if deps.ShippingService == nil {
		return nil, fmt.Errorf("handlers dependencies: shippingService is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkoutService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.SettingsService == nil {
		return nil, fmt.Errorf("handlers dependencies: settingsService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		cacheProvider:   deps.CacheProvider,
		authService:     deps.AuthService,
		catalogService:  deps.CatalogService,
		couponService:   deps.CouponService,
		loyaltyService:  deps.LoyaltyService,
		shippingService: deps.ShippingService,
		checkoutService: deps.CheckoutService,
		orderService:    deps.OrderService,
		settingsService: deps.SettingsService,
		adminService:    deps.AdminService,
		stripeRouter:    deps.StripeRouter,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		h.loggerFromContext(ctx).Error("database health check failed", "error", err)
		h.writeError(w, r, http.StatusServiceUnavailable, "database unhealthy")
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
