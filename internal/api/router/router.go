// Package router assembles the HTTP surface: public booking endpoints
// resolved by tenant slug, admin endpoints behind JWT, and operational
// endpoints (health, metrics).
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/turnohq/turno-platform/internal/http/middleware"
	"github.com/turnohq/turno-platform/internal/reservations"
	"github.com/turnohq/turno-platform/internal/revenue"
	"github.com/turnohq/turno-platform/internal/tenants"
	"github.com/turnohq/turno-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	TenantResolver      *tenants.Resolver
	ReservationsHandler *reservations.Handler
	StatsHandler        *reservations.StatsHandler
	RevenueHandler      *revenue.Handler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	RateLimitPerSec     float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Operational endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public booking endpoints, addressed by tenant slug
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		public.Use(requireTenantSlug(cfg.TenantResolver))

		public.Post("/reservations", cfg.ReservationsHandler.Create)
		public.Post("/reservations/{id}/cancel", cfg.ReservationsHandler.Cancel)
		public.Get("/providers/{providerID}/availability", cfg.ReservationsHandler.Availability)
	})

	// Admin endpoints, tenant bound by JWT claims
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		admin.Get("/reservations/{id}", cfg.ReservationsHandler.Get)
		admin.Post("/reservations/{id}/cancel", cfg.ReservationsHandler.Cancel)
		admin.Post("/reservations/{id}/complete", cfg.ReservationsHandler.Complete)
		admin.Get("/providers/{providerID}/availability", cfg.ReservationsHandler.Availability)

		if cfg.StatsHandler != nil {
			admin.Get("/stats", cfg.StatsHandler.GetStats)
		}

		if cfg.RevenueHandler != nil {
			admin.Get("/revenue/config", cfg.RevenueHandler.GetConfig)
			admin.Put("/revenue/config", cfg.RevenueHandler.SaveConfig)
			admin.Get("/revenue/transactions/{id}", cfg.RevenueHandler.GetTransaction)
			admin.Get("/revenue/split", cfg.ReservationsHandler.SplitPreview)
		}
	})

	return r
}
