package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/mentorhub/internal/config"
)

func TestSecurityHeaders(t *testing.T) {
	cfg := config.SecurityHeadersConfig{
		Enabled:            true,
		CSP:                "default-src 'none'",
		HSTSMaxAge:         31536000,
		FrameOptions:       "DENY",
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "geolocation=()",
	}

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Security-Policy"); got != cfg.CSP {
		t.Errorf("CSP header = %v, want %v", got, cfg.CSP)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS header = %v, want max-age=31536000; includeSubDomains", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != cfg.FrameOptions {
		t.Errorf("Frame Options header = %v, want %v", got, cfg.FrameOptions)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != cfg.ContentTypeOptions {
		t.Errorf("Content Type Options header = %v, want %v", got, cfg.ContentTypeOptions)
	}
	if got := w.Header().Get("X-XSS-Protection"); got != cfg.XSSProtection {
		t.Errorf("XSS Protection header = %v, want %v", got, cfg.XSSProtection)
	}
	if got := w.Header().Get("Referrer-Policy"); got != cfg.ReferrerPolicy {
		t.Errorf("Referrer Policy header = %v, want %v", got, cfg.ReferrerPolicy)
	}
	if got := w.Header().Get("Permissions-Policy"); got != cfg.PermissionsPolicy {
		t.Errorf("Permissions Policy header = %v, want %v", got, cfg.PermissionsPolicy)
	}
}

func TestSecurityHeaders_Disabled(t *testing.T) {
	cfg := config.SecurityHeadersConfig{
		Enabled: false,
		CSP:     "default-src 'none'",
	}

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP header should not be set when disabled, got %v", got)
	}
}

func TestSecurityHeaders_EmptyValues(t *testing.T) {
	cfg := config.SecurityHeadersConfig{
		Enabled:            true,
		ContentTypeOptions: "nosniff",
	}

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Content Type Options header = %v, want nosniff", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("empty CSP should leave header unset, got %v", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("zero HSTS max-age should leave header unset, got %v", got)
	}
}
