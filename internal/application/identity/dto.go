package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/infrastructure/auth"
)

// RegisterInput contains the input for member sign-up
type RegisterInput struct {
	TenantID uuid.UUID
	Email    string
	Username string
	Password string
	FullName string
	Phone    string
}

// LoginInput contains the input for user login.
// Login is either the email or the username.
type LoginInput struct {
	TenantID uuid.UUID
	Login    string
	Password string
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserResponse    `json:"user"`
}

// LogoutInput identifies the tokens to revoke. RefreshToken is optional.
type LogoutInput struct {
	AccessTokenID  string
	AccessTokenTTL time.Duration
	RefreshToken   string
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	FullName string
	Phone    string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// ListUsersInput filters the admin user listing
type ListUsersInput struct {
	Search   string
	Role     string
	Status   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		Username:    u.Username,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
