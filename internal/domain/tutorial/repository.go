package tutorial

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Repository persists tutorials.
// FindAllForTenant understands the filters "category" and "published".
type Repository interface {
	Create(ctx context.Context, t *Tutorial) error
	Update(ctx context.Context, t *Tutorial) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Tutorial, error)
	FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*Tutorial, error)
	ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Tutorial, int64, error)
}
