// Package tenant provides tenant scoping for GORM queries.
//
// Every tenant-owned table carries a tenant_id column. Repositories apply
// TenantScope to each read and write so a caller can never reach another
// tenant's rows by guessing an ID.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a query is built without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// TenantScope applies tenant filtering to GORM queries.
// A nil tenant ID poisons the query instead of silently widening it.
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// TenantDB wraps a GORM DB and hands out tenant scoped sessions
type TenantDB struct {
	db *gorm.DB
}

// NewTenantDB creates a new TenantDB
func NewTenantDB(db *gorm.DB) *TenantDB {
	return &TenantDB{db: db}
}

// WithTenant returns a GORM DB scoped to a specific tenant ID
func (t *TenantDB) WithTenant(tenantID uuid.UUID) *gorm.DB {
	return t.db.Scopes(TenantScope(tenantID))
}

// Unscoped returns the underlying DB without tenant scoping.
// Only used for cross-tenant system jobs such as expiring stale top-ups.
func (t *TenantDB) Unscoped() *gorm.DB {
	return t.db
}
