package ops

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/mentorhub/internal/httputil"
	"github.com/tendant/mentorhub/pkg/domain"
)

// Pool is the slice of the tenant connection pool the ops endpoints
// consume.
type Pool interface {
	Size() int
	Has(tenantID string) bool
	Release(tenantID string)
}

// Handler serves operational endpoints for the tenant connection pool.
type Handler struct {
	logger *slog.Logger
	pool   Pool
}

// NewHandler creates an ops handler.
func NewHandler(logger *slog.Logger, pool Pool) *Handler {
	return &Handler{logger: logger, pool: pool}
}

type PoolStatusResponse struct {
	Entries int `json:"entries"`
}

type TenantPoolResponse struct {
	TenantID string `json:"tenant_id"`
	Pooled   bool   `json:"pooled"`
}

// PoolStatus reports the number of pooled tenant handles.
// GET /v1/ops/pool
func (h *Handler) PoolStatus(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, PoolStatusResponse{Entries: h.pool.Size()})
}

// TenantStatus reports whether a tenant currently holds a pooled handle.
// GET /v1/ops/pool/{tenantID}
func (h *Handler) TenantStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !domain.ValidTenantID(tenantID) {
		httputil.Error(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	httputil.JSON(w, http.StatusOK, TenantPoolResponse{
		TenantID: tenantID,
		Pooled:   h.pool.Has(tenantID),
	})
}

// EvictTenant closes and removes a tenant's pooled handle. Used by
// tenant-management workflows after suspending or deleting a tenant.
// DELETE /v1/ops/pool/{tenantID}
func (h *Handler) EvictTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !domain.ValidTenantID(tenantID) {
		httputil.Error(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	h.pool.Release(tenantID)
	h.logger.Info("tenant handle evicted on request", "tenant_id", tenantID)
	w.WriteHeader(http.StatusNoContent)
}
