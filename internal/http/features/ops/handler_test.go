package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePool struct {
	size     int
	pooled   map[string]bool
	released []string
}

func (f *fakePool) Size() int                { return f.size }
func (f *fakePool) Has(tenantID string) bool { return f.pooled[tenantID] }
func (f *fakePool) Release(tenantID string)  { f.released = append(f.released, tenantID) }

func newTestRouter(pool *fakePool) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(os.Stdout, nil)), pool)
	r := chi.NewRouter()
	r.Get("/v1/ops/pool", h.PoolStatus)
	r.Get("/v1/ops/pool/{tenantID}", h.TenantStatus)
	r.Delete("/v1/ops/pool/{tenantID}", h.EvictTenant)
	return r
}

func TestPoolStatus(t *testing.T) {
	router := newTestRouter(&fakePool{size: 3})

	req := httptest.NewRequest("GET", "/v1/ops/pool", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp PoolStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Entries != 3 {
		t.Errorf("Entries = %d, want 3", resp.Entries)
	}
}

func TestTenantStatus(t *testing.T) {
	router := newTestRouter(&fakePool{pooled: map[string]bool{"tnt_abc123": true}})

	req := httptest.NewRequest("GET", "/v1/ops/pool/tnt_abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp TenantPoolResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Pooled {
		t.Error("Pooled = false, want true")
	}
}

func TestTenantStatus_InvalidID(t *testing.T) {
	router := newTestRouter(&fakePool{})

	req := httptest.NewRequest("GET", "/v1/ops/pool/bad-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEvictTenant(t *testing.T) {
	pool := &fakePool{}
	router := newTestRouter(pool)

	req := httptest.NewRequest("DELETE", "/v1/ops/pool/tnt_abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(pool.released) != 1 || pool.released[0] != "tnt_abc123" {
		t.Errorf("released = %v, want [tnt_abc123]", pool.released)
	}
}
