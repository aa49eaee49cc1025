package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/mentorhub/internal/config"
	"github.com/tendant/mentorhub/internal/http/features/conversations"
	"github.com/tendant/mentorhub/internal/http/features/ops"
	"github.com/tendant/mentorhub/internal/http/middleware"
	"github.com/tendant/mentorhub/internal/httputil"
	"github.com/tendant/mentorhub/pkg/tenantpool"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	Registry           middleware.TenantRegistry
	Pool               *tenantpool.Pool
	TenantDefaults     tenantpool.Defaults
	ExcludedPaths      []string
	DevMode            bool
	DevTenantID        string
	RateLimit          config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
}

// NewRouter creates a new HTTP router with all routes registered. Every
// route runs behind the tenant resolver except the excluded paths
// (health, metrics and the ops surface).
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))
	}
	r.Use(middleware.TenantResolver(middleware.TenantResolverConfig{
		Logger:        cfg.Logger,
		Registry:      cfg.Registry,
		Pool:          cfg.Pool,
		Defaults:      cfg.TenantDefaults,
		ExcludedPaths: cfg.ExcludedPaths,
		DevMode:       cfg.DevMode,
		DevTenantID:   cfg.DevTenantID,
	}))

	// Health check and metrics (excluded from tenant resolution)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimit, cfg.Logger)

	// Tenant-scoped conversation routes
	conversationsHandler := conversations.NewHandler(cfg.Logger)
	r.Get("/v1/conversations", conversationsHandler.List)
	r.Get("/v1/conversations/{conversationID}/messages", conversationsHandler.ListMessages)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["write"])
		r.Post("/v1/conversations", conversationsHandler.Create)
		r.Post("/v1/conversations/{conversationID}/messages", conversationsHandler.CreateMessage)
	})

	// Pool diagnostics and eviction for tenant-management workflows
	opsHandler := ops.NewHandler(cfg.Logger, cfg.Pool)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["ops"])
		r.Get("/v1/ops/pool", opsHandler.PoolStatus)
		r.Get("/v1/ops/pool/{tenantID}", opsHandler.TenantStatus)
		r.Delete("/v1/ops/pool/{tenantID}", opsHandler.EvictTenant)
	})

	return r
}
