package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sunushop/sunushop/internal/config"
	"github.com/sunushop/sunushop/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	r.HandleFunc("/webhooks/stripe", h.StripeWebhook).Methods("POST").Name("webhooks.stripe")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods("POST").Name("auth.register")
	api.HandleFunc("/auth/login", h.Login).Methods("POST").Name("auth.login")

	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")

	// Pricing previews. Coupon validation works anonymously but applies
	// per-user limits when a token is sent.
	previewRouter := api.NewRoute().Subrouter()
	previewRouter.Use(h.OptionalAuth)
	previewRouter.HandleFunc("/coupons/validate", h.ValidateCoupon).Methods("POST").Name("coupons.validate")
	previewRouter.HandleFunc("/shipping/quote", h.ShippingQuote).Methods("POST").Name("shipping.quote")

	// Authenticated buyer routes
	authRouter := api.NewRoute().Subrouter()
	authRouter.Use(h.RequireAuth)
	authRouter.HandleFunc("/loyalty/account", h.LoyaltyAccount).Methods("GET").Name("loyalty.account")
	authRouter.HandleFunc("/loyalty/transactions", h.LoyaltyTransactions).Methods("GET").Name("loyalty.transactions")
	authRouter.HandleFunc("/loyalty/preview", h.LoyaltyPreview).Methods("POST").Name("loyalty.preview")
	authRouter.HandleFunc("/checkout", h.Checkout).Methods("POST").Name("checkout")
	authRouter.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	authRouter.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	authRouter.HandleFunc("/orders/{id}/cancel", h.CancelOrder).Methods("POST").Name("orders.cancel")

	// Admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(h.RequireAuth)
	adminRouter.Use(h.RequireAdmin)
	adminRouter.HandleFunc("/coupons", h.AdminListCoupons).Methods("GET").Name("admin.coupons.list")
	adminRouter.HandleFunc("/coupons", h.AdminCreateCoupon).Methods("POST").Name("admin.coupons.create")
	adminRouter.HandleFunc("/coupons/{id}", h.AdminUpdateCoupon).Methods("PUT").Name("admin.coupons.update")
	adminRouter.HandleFunc("/coupons/{id}/active", h.AdminSetCouponActive).Methods("POST").Name("admin.coupons.active")
	adminRouter.HandleFunc("/zones", h.AdminListZones).Methods("GET").Name("admin.zones.list")
	adminRouter.HandleFunc("/zones", h.AdminCreateZone).Methods("POST").Name("admin.zones.create")
	adminRouter.HandleFunc("/zones/import", h.AdminImportZones).Methods("POST").Name("admin.zones.import")
	adminRouter.HandleFunc("/zones/{id}", h.AdminUpdateZone).Methods("PUT").Name("admin.zones.update")
	adminRouter.HandleFunc("/zones/{id}/active", h.AdminSetZoneActive).Methods("POST").Name("admin.zones.active")
	adminRouter.HandleFunc("/settings", h.AdminGetSettings).Methods("GET").Name("admin.settings.get")
	adminRouter.HandleFunc("/settings", h.AdminUpdateSettings).Methods("PUT").Name("admin.settings.update")
	adminRouter.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	adminRouter.HandleFunc("/orders/{id}/ship", h.AdminShipOrder).Methods("POST").Name("admin.orders.ship")
	adminRouter.HandleFunc("/orders/{id}/deliver", h.AdminDeliverOrder).Methods("POST").Name("admin.orders.deliver")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return r
}
