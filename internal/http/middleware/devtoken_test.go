package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("any-key-works-here"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestExtractDevTenantHint(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tnt_abc123",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	if got := extractDevTenantHint(token); got != "tnt_abc123" {
		t.Errorf("extractDevTenantHint = %q, want %q", got, "tnt_abc123")
	}
}

func TestExtractDevTenantHint_MissingClaim(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{"sub": "user-1"})

	if got := extractDevTenantHint(token); got != "" {
		t.Errorf("extractDevTenantHint = %q, want empty", got)
	}
}

func TestExtractDevTenantHint_ExpiredTokenStillYieldsClaim(t *testing.T) {
	// The dev path never validates the token, so even an expired one
	// yields its claim.
	token := signTestToken(t, jwt.MapClaims{
		"tenant_id": "tnt_abc123",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})

	if got := extractDevTenantHint(token); got != "tnt_abc123" {
		t.Errorf("extractDevTenantHint = %q, want %q", got, "tnt_abc123")
	}
}

func TestExtractDevTenantHint_Garbage(t *testing.T) {
	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if got := extractDevTenantHint(input); got != "" {
			t.Errorf("extractDevTenantHint(%q) = %q, want empty", input, got)
		}
	}
}
