package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/auth"
)

// UserService manages profiles and the admin user listing
type UserService struct {
	userRepo    identity.UserRepository
	revocations auth.Revocations
	sessionTTL  time.Duration
	auditor     auditapp.Recorder
	logger      *zap.Logger
}

// NewUserService creates a user service. sessionTTL is how long a session
// revocation is remembered and should match the refresh token lifetime.
func NewUserService(
	userRepo identity.UserRepository,
	revocations auth.Revocations,
	sessionTTL time.Duration,
	auditor auditapp.Recorder,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		revocations: revocations,
		sessionTTL:  sessionTTL,
		auditor:     auditor,
		logger:      logger,
	}
}

// Me returns the caller's profile
func (s *UserService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	return s.GetUser(ctx, tenantID, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, input UpdateProfileInput) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.FullName, input.Phone); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword replaces the password and signs out every other session
func (s *UserService) ChangePassword(ctx context.Context, tenantID, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.revokeSessions(ctx, user.ID)
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// ListUsers returns one page of the tenant's users
func (s *UserService) ListUsers(ctx context.Context, tenantID uuid.UUID, input ListUsersInput) (*shared.Paginated[UserResponse], error) {
	filter := shared.Filter{
		Page:     input.Page,
		PageSize: input.PageSize,
		OrderBy:  input.OrderBy,
		OrderDir: input.OrderDir,
		Search:   input.Search,
	}.Normalize()
	if input.Role != "" {
		filter.Filters["role"] = identity.Role(input.Role)
	}
	if input.Status != "" {
		filter.Filters["status"] = identity.UserStatus(input.Status)
	}

	users, total, err := s.userRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *UserService) GetUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// SetStatus suspends or reactivates a user. Suspension ends all sessions.
func (s *UserService) SetStatus(ctx context.Context, tenantID, actorID, userID uuid.UUID, status identity.UserStatus) (*UserResponse, error) {
	if actorID == userID {
		return nil, ErrCannotModifySelf
	}
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	old := user.Status
	if err := user.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if status == identity.UserStatusSuspended {
		s.revokeSessions(ctx, user.ID)
	}

	action := audit.ActionUserActivate
	if status == identity.UserStatusSuspended {
		action = audit.ActionUserSuspend
	}
	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     tenantID,
		ActorID:      &actorID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Metadata:     map[string]any{"from": string(old), "to": string(status)},
	})
	s.logger.Info("User status changed",
		zap.String("user_id", user.ID.String()),
		zap.String("status", string(status)),
		zap.String("actor_id", actorID.String()))

	resp := ToUserResponse(user)
	return &resp, nil
}

// SetRole promotes a member to admin or demotes an admin
func (s *UserService) SetRole(ctx context.Context, tenantID, actorID, userID uuid.UUID, role identity.Role) (*UserResponse, error) {
	if actorID == userID {
		return nil, ErrCannotModifySelf
	}
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	old := user.Role
	if err := user.SetRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	// tokens carry the role, so old tokens must not outlive a demotion
	s.revokeSessions(ctx, user.ID)

	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     tenantID,
		ActorID:      &actorID,
		Action:       audit.ActionUserSetRole,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Metadata:     map[string]any{"from": string(old), "to": string(role)},
	})

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.RevokeUserSessions(ctx, userID.String(), s.sessionTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
