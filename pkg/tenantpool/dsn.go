package tenantpool

import (
	"fmt"
	"net/url"

	"github.com/tendant/mentorhub/pkg/domain"
)

// Defaults supplies connection fields for tenants whose registry record
// does not carry an explicit database URL.
type Defaults struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// BuildDSN resolves the connection string for a tenant. An explicit
// database_url on the record wins; otherwise the DSN is assembled from the
// defaults and the tenant's derived database name.
func BuildDSN(tenant *domain.Tenant, d Defaults) string {
	if tenant.DatabaseURL != nil && *tenant.DatabaseURL != "" {
		return *tenant.DatabaseURL
	}

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + domain.DatabaseName(tenant.ID),
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// DefaultDSN builds the DSN for a tenant id straight from the defaults.
// Used by the development-mode path, which never consults the registry.
func DefaultDSN(tenantID string, d Defaults) string {
	return BuildDSN(&domain.Tenant{ID: tenantID}, d)
}
