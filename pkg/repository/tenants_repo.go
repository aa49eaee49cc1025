package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tendant/mentorhub/pkg/domain"
)

// TenantsRepository reads tenant records from the platform store. Records
// are created and updated by the tenant-management process; the routing
// layer never writes them.
type TenantsRepository struct {
	db *sql.DB
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(db *sql.DB) *TenantsRepository {
	return &TenantsRepository{db: db}
}

// FindByID retrieves a tenant by id. Returns domain.ErrTenantNotFound when
// no record exists; callers handle that as a routing failure, not a fault.
// Results are never cached so suspension or deletion takes effect on the
// next request.
func (r *TenantsRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `
		SELECT id, name, status, database_url, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Status,
		&tenant.DatabaseURL,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}

	return &tenant, nil
}
