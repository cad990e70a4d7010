package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Query narrows an audit log listing
type Query struct {
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

// Repository stores audit logs. There is no update or delete.
type Repository interface {
	Create(ctx context.Context, l *Log) error
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, q Query, filter shared.Filter) ([]Log, int64, error)
}
