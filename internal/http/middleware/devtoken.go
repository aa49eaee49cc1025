package middleware

import (
	"github.com/golang-jwt/jwt/v5"
)

// devTenantClaim is the token claim inspected in development mode.
const devTenantClaim = "tenant_id"

// extractDevTenantHint pulls a tenant id from an unverified bearer token.
// Development convenience only: the signature is never checked, so this
// must stay behind the dev-mode flag. Returns "" when no usable claim is
// present.
func extractDevTenantHint(tokenString string) string {
	if tokenString == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	id, _ := claims[devTenantClaim].(string)
	return id
}
