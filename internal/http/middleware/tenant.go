package middleware

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/mentorhub/internal/httputil"
	"github.com/tendant/mentorhub/pkg/domain"
	"github.com/tendant/mentorhub/pkg/tenantpool"
)

type contextKey string

const (
	// TenantIDKey is the context key for the resolved tenant ID.
	TenantIDKey contextKey = "tenant_id"
	// TenantDBKey is the context key for the tenant's database handle.
	TenantDBKey contextKey = "tenant_db"
)

const (
	// TenantHeader carries the tenant identifier in production mode.
	TenantHeader = "X-Tenant-Id"
	// CorrelationHeader is echoed into structured error bodies.
	CorrelationHeader = "X-Request-Id"
)

// TenantRegistry looks up tenant records in the platform store.
type TenantRegistry interface {
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
}

// TenantPool hands out pooled per-tenant database handles.
type TenantPool interface {
	Acquire(ctx context.Context, tenantID, dsn string) (*sql.DB, error)
}

// TenantResolverConfig holds dependencies for the tenant resolver.
type TenantResolverConfig struct {
	Logger        *slog.Logger
	Registry      TenantRegistry
	Pool          TenantPool
	Defaults      tenantpool.Defaults
	ExcludedPaths []string
	DevMode       bool
	DevTenantID   string
}

// TenantResolver creates middleware that resolves each request to a tenant
// and attaches the tenant's pooled database handle to the request context.
// Requests on excluded paths pass through untouched. Routing denials are
// 403s with a structured body; pool failures surface as 503 and are logged
// with the tenant id and elapsed time.
func TenantResolver(cfg TenantResolverConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pathExcluded(cfg.ExcludedPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			corrID := r.Header.Get(CorrelationHeader)

			// Development shortcut: tenant from an unverified token claim,
			// falling back to the fixed dev tenant. Never consults the
			// registry, so no status gating applies.
			if cfg.DevMode {
				tenantID := extractDevTenantHint(bearerToken(r))
				if tenantID == "" {
					tenantID = cfg.DevTenantID
				}
				start := time.Now()
				db, err := cfg.Pool.Acquire(r.Context(), tenantID, tenantpool.DefaultDSN(tenantID, cfg.Defaults))
				if err != nil {
					writeAcquireProblem(w, cfg.Logger, tenantID, corrID, start, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), tenantID, db)))
				return
			}

			tenantID := r.Header.Get(TenantHeader)
			if tenantID == "" {
				httputil.WriteProblem(w, httputil.Problem{
					Type:          "tenant_id_missing",
					Title:         "Tenant identifier required",
					Status:        http.StatusForbidden,
					Detail:        "the " + TenantHeader + " header is required",
					CorrelationID: corrID,
				})
				return
			}

			if !domain.ValidTenantID(tenantID) {
				httputil.WriteProblem(w, httputil.Problem{
					Type:          "invalid_tenant_id_format",
					Title:         "Invalid tenant identifier",
					Status:        http.StatusForbidden,
					Detail:        "tenant id must start with " + domain.TenantIDPrefix,
					CorrelationID: corrID,
				})
				return
			}

			tenant, err := cfg.Registry.FindByID(r.Context(), tenantID)
			if err != nil {
				if errors.Is(err, domain.ErrTenantNotFound) {
					httputil.WriteProblem(w, httputil.Problem{
						Type:          "tenant_not_found",
						Title:         "Unknown tenant",
						Status:        http.StatusForbidden,
						CorrelationID: corrID,
					})
					return
				}
				cfg.Logger.Error("tenant lookup failed", "tenant_id", tenantID, "error", err)
				httputil.WriteProblem(w, httputil.Problem{
					Type:          "tenant_lookup_error",
					Title:         "Tenant lookup failed",
					Status:        http.StatusInternalServerError,
					CorrelationID: corrID,
				})
				return
			}

			if !tenant.IsActive() {
				httputil.WriteProblem(w, httputil.Problem{
					Type:          "tenant_not_active",
					Title:         "Tenant not active",
					Status:        http.StatusForbidden,
					Detail:        fmt.Sprintf("tenant status is %s", tenant.Status),
					CorrelationID: corrID,
				})
				return
			}

			start := time.Now()
			db, err := cfg.Pool.Acquire(r.Context(), tenantID, tenantpool.BuildDSN(tenant, cfg.Defaults))
			if err != nil {
				writeAcquireProblem(w, cfg.Logger, tenantID, corrID, start, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), tenantID, db)))
		})
	}
}

func withTenant(ctx context.Context, tenantID string, db *sql.DB) context.Context {
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	return context.WithValue(ctx, TenantDBKey, db)
}

func writeAcquireProblem(w http.ResponseWriter, logger *slog.Logger, tenantID, corrID string, start time.Time, err error) {
	// The caller abandoning its own request is not a pool failure; log it
	// and skip the problem body nobody will read.
	if errors.Is(err, context.Canceled) {
		logger.Warn("tenant connection acquisition abandoned",
			"tenant_id", tenantID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	logger.Error("tenant connection acquisition failed",
		"tenant_id", tenantID,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	if errors.Is(err, tenantpool.ErrAcquireTimeout) {
		httputil.WriteProblem(w, httputil.Problem{
			Type:          "connection_acquisition_timeout",
			Title:         "Tenant database unavailable",
			Status:        http.StatusServiceUnavailable,
			CorrelationID: corrID,
		})
		return
	}
	httputil.WriteProblem(w, httputil.Problem{
		Type:          "connection_construction_error",
		Title:         "Tenant database connection failed",
		Status:        http.StatusServiceUnavailable,
		CorrelationID: corrID,
	})
}

// pathExcluded reports whether path matches the excluded set. Entries
// ending in "*" match by prefix; everything else matches exactly.
func pathExcluded(excluded []string, path string) bool {
	for _, p := range excluded {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetTenantID extracts the resolved tenant ID from the request context.
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok
}

// GetTenantDB extracts the tenant database handle from the request context.
func GetTenantDB(ctx context.Context) (*sql.DB, bool) {
	db, ok := ctx.Value(TenantDBKey).(*sql.DB)
	return db, ok
}
