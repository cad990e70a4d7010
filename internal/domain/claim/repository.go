package claim

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Repository persists warranty claims.
// FindAllForTenant understands the filters "user_id", "order_id" and "status".
type Repository interface {
	Create(ctx context.Context, c *WarrantyClaim) error
	Update(ctx context.Context, c *WarrantyClaim) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*WarrantyClaim, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]WarrantyClaim, int64, error)
	HasPendingForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status Status) (int64, error)
}
