package domain

import (
	"strings"
	"time"
)

// TenantIDPrefix is the literal prefix every tenant identifier must carry.
const TenantIDPrefix = "tnt_"

// TenantStatus is the lifecycle state of a tenant. Only ACTIVE tenants are
// routable.
type TenantStatus string

const (
	TenantStatusDraft           TenantStatus = "DRAFT"
	TenantStatusOnboarding      TenantStatus = "ONBOARDING"
	TenantStatusActive          TenantStatus = "ACTIVE"
	TenantStatusSuspended       TenantStatus = "SUSPENDED"
	TenantStatusPendingDeletion TenantStatus = "PENDING_DELETION"
	TenantStatusDeleted         TenantStatus = "DELETED"
)

// Tenant represents an isolated customer workspace with its own logical
// database. Records are owned by the tenant-management process; the routing
// layer only reads them.
type Tenant struct {
	ID          string
	Name        string
	Status      TenantStatus
	DatabaseURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether the tenant may be routed to.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// ValidTenantID reports whether id carries the required tenant prefix.
func ValidTenantID(id string) bool {
	return strings.HasPrefix(id, TenantIDPrefix) && len(id) > len(TenantIDPrefix)
}

// DatabaseName derives the per-tenant database name from the tenant id,
// e.g. "tnt_abc123" -> "tenant_abc123".
func DatabaseName(id string) string {
	return "tenant_" + strings.TrimPrefix(id, TenantIDPrefix)
}
