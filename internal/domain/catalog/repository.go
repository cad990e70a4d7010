package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// ProductRepository persists products.
// FindAllForTenant understands the filters "category" and "status".
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, status *ProductStatus) (int64, error)
}

// StockRepository persists stock items
type StockRepository interface {
	CreateBatch(ctx context.Context, items []*StockItem) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockItem, error)
	// FindByProduct lists items of a product; filter "status" narrows by StockStatus
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockItem, int64, error)
	// ExistingFingerprints returns which of the given fingerprints are already stored for the product
	ExistingFingerprints(ctx context.Context, tenantID, productID uuid.UUID, fingerprints []string) (map[string]bool, error)
	// ClaimAvailable atomically moves the oldest AVAILABLE item to SOLD.
	// Returns shared.ErrOutOfStock when none is left.
	ClaimAvailable(ctx context.Context, tenantID, productID, orderID uuid.UUID, at time.Time) (*StockItem, error)
	// Revoke moves an AVAILABLE item to REVOKED; returns shared.ErrInvalidState otherwise
	Revoke(ctx context.Context, item *StockItem) error
	CountAvailable(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID, productID *uuid.UUID, status StockStatus) (int64, error)
}
