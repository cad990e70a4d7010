package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TopUpRepository persists top-ups.
// FindAllForTenant understands the filters "user_id", "status" and "method".
type TopUpRepository interface {
	Create(ctx context.Context, t *TopUp) error
	Update(ctx context.Context, t *TopUp) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TopUp, error)
	// FindByMerchantRef is not tenant scoped; merchant refs are globally unique
	FindByMerchantRef(ctx context.Context, merchantRef string) (*TopUp, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TopUp, int64, error)
	// FindStale returns UNPAID top-ups of every tenant that expired before the given time
	FindStale(ctx context.Context, before time.Time, limit int) ([]TopUp, error)
	// PaidVolumeSince sums the amount of PAID top-ups since the given time
	PaidVolumeSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (decimal.Decimal, error)
}
