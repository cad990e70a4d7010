package identity

import (
	"context"

	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update saves the user if its stored version is user.Version-1
	Update(ctx context.Context, user *User) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	// FindByLogin matches either the email or the username
	FindByLogin(ctx context.Context, tenantID uuid.UUID, login string) (*User, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, status *UserStatus) (int64, error)
}
