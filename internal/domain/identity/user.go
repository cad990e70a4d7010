package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is the portal role of a user
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// IsValid reports whether the status is known
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

const (
	bcryptCost        = 12
	minPasswordLength = 8
	// bcrypt ignores everything after 72 bytes
	maxPasswordLength = 72
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.]{2,31}$`)

// Domain errors for identity
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid login or password")
	ErrAccountSuspended   = shared.NewDomainError("ACCOUNT_SUSPENDED", "This account has been suspended")
	ErrEmailTaken         = shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	ErrUsernameTaken      = shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
)

// User is a member or administrator of a tenant
type User struct {
	shared.TenantAggregateRoot
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Phone        string
	Role         Role
	Status       UserStatus
	LastLoginAt  *time.Time
}

// NewMember registers an active member
func NewMember(tenantID uuid.UUID, email, username, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !usernamePattern.MatchString(username) {
		return nil, shared.NewDomainError("INVALID_USERNAME",
			"Username must be 3-32 characters of letters, digits, '_' or '.'")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		Username:            username,
		PasswordHash:        hash,
		Role:                RoleMember,
		Status:              UserStatusActive,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// UpdateProfile changes the display fields
func (u *User) UpdateProfile(fullName, phone string) error {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if len(fullName) > 120 {
		return shared.NewDomainError("INVALID_FULL_NAME", "Full name cannot exceed 120 characters")
	}
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	u.FullName = fullName
	u.Phone = phone
	u.IncrementVersion()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after checking the current one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.IncrementVersion()
	return nil
}

// CanLogin returns nil when the user may authenticate
func (u *User) CanLogin() error {
	if u.Status == UserStatusSuspended {
		return ErrAccountSuspended
	}
	return nil
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.IncrementVersion()
}

// SetStatus suspends or reactivates the user
func (u *User) SetStatus(status UserStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown user status")
	}
	if u.Status == status {
		return shared.NewDomainError("INVALID_STATE", "User already has status "+string(status))
	}
	old := u.Status
	u.Status = status
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, old))
	return nil
}

// SetRole promotes or demotes the user
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	u.Role = role
	u.IncrementVersion()
	return nil
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsActive() bool { return u.Status == UserStatusActive }

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return "", shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}
