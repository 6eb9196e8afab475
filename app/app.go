package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/sunushop/sunushop/internal/cache"
	"github.com/sunushop/sunushop/internal/config"
	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/email"
	"github.com/sunushop/sunushop/internal/handlers"
	"github.com/sunushop/sunushop/internal/payments"
	"github.com/sunushop/sunushop/internal/services"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	userStore := db.NewUserStore(database)
	productStore := db.NewProductStore(database)
	couponStore := db.NewCouponStore(database)
	zoneStore := db.NewZoneStore(database)
	loyaltyStore := db.NewLoyaltyStore(database)
	orderStore := db.NewOrderStore(database)
	settingsStore := db.NewSettingsStore(database)

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.ResendAPIKey,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}

	var orderEmailer services.OrderEmailSender
	if emailProvider != nil {
		orderEmailer = services.NewMarketplaceEmailSender(emailProvider, "", cfg.BaseURL)
	}

	var paymentsClient *payments.Client
	if cfg.StripeSecretKey != "" {
		paymentsClient = payments.NewClient(cfg.StripeSecretKey, cfg.BaseURL)
	}

	authService := services.NewAuthService(userStore, cfg.JWTSecret, logger.With("component", "auth_service"))
	catalogService := services.NewCatalogService(productStore, logger.With("component", "catalog_service"))
	couponService := services.NewCouponService(couponStore, orderStore, cacheProvider, logger.With("component", "coupon_service"))
	loyaltyService := services.NewLoyaltyService(loyaltyStore, logger.With("component", "loyalty_service"))
	shippingService := services.NewShippingService(zoneStore, logger.With("component", "shipping_service"))
	settingsService := services.NewSettingsService(settingsStore, cacheProvider, logger.With("component", "settings_service"))
	checkoutService := services.NewCheckoutService(
		database,
		userStore,
		productStore,
		couponStore,
		loyaltyStore,
		orderStore,
		couponService,
		shippingService,
		settingsService,
		paymentsClient,
		orderEmailer,
		logger.With("component", "checkout_service"),
	)
	orderService := services.NewOrderService(
		database,
		orderStore,
		productStore,
		couponStore,
		loyaltyStore,
		userStore,
		settingsService,
		orderEmailer,
		logger.With("component", "order_service"),
	)
	adminService := services.NewAdminService(couponStore, zoneStore, cacheProvider, logger.With("component", "admin_service"))
	stripeRouter := handlers.NewStripeEventRouter(orderStore, orderService, logger.With("component", "stripe_router"))

	if err := seedShippingZones(startupCtx, cfg, adminService, logger); err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, err
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		CacheProvider:   cacheProvider,
		AuthService:     authService,
		CatalogService:  catalogService,
		CouponService:   couponService,
		LoyaltyService:  loyaltyService,
		ShippingService: shippingService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		SettingsService: settingsService,
		AdminService:    adminService,
		StripeRouter:    stripeRouter,
		Logger:          logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func seedShippingZones(ctx context.Context, cfg *config.Config, adminService *services.AdminService, logger *slog.Logger) error {
	if cfg.ZoneSeedFile == "" {
		return nil
	}

	content, err := os.ReadFile(cfg.ZoneSeedFile)
	if err != nil {
		return fmt.Errorf("failed to read zone seed file: %w", err)
	}
	if err := adminService.SeedZonesFromFile(ctx, content); err != nil {
		return fmt.Errorf("failed to seed shipping zones: %w", err)
	}
	logger.Info("shipping zone seed applied", "file", cfg.ZoneSeedFile)
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
