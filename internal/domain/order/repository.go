package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository persists orders.
// FindAllForTenant understands the filters "user_id", "product_id" and "status".
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	CountSoldForProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error)
	// SalesSince returns the number of COMPLETED orders and their revenue since the given time
	SalesSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, decimal.Decimal, error)
}
