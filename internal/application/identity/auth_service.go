package identity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/memberportal/backend/internal/infrastructure/auth"
)

// AuthService handles sign-up, login, token refresh and logout
type AuthService struct {
	scope       unitofwork.TransactionScope
	userRepo    identity.UserRepository
	jwtService  *auth.JWTService
	revocations auth.Revocations
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service.
// revocations may be nil, in which case logout only discards tokens client side.
func NewAuthService(
	scope unitofwork.TransactionScope,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.Revocations,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		scope:       scope,
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		logger:      logger,
	}
}

// Register creates an ACTIVE member together with an empty wallet
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	taken, err := s.userRepo.ExistsByEmail(ctx, input.TenantID, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, identity.ErrEmailTaken
	}
	taken, err = s.userRepo.ExistsByUsername(ctx, input.TenantID, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, identity.ErrUsernameTaken
	}

	user, err := identity.NewMember(input.TenantID, input.Email, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if input.FullName != "" || input.Phone != "" {
		if err := user.UpdateProfile(input.FullName, input.Phone); err != nil {
			return nil, err
		}
	}
	w, err := wallet.NewWallet(user.TenantID, user.ID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		return repos.WalletRepo().Create(ctx, w)
	})
	if err != nil {
		// lost a race with a concurrent sign-up
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("Member registered",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return s.issue(user, 0)
}

// Login authenticates by email or username
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByLogin(ctx, input.TenantID, input.Login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown user", zap.String("login", input.Login))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}
	if err := user.CanLogin(); err != nil {
		s.logger.Warn("Login attempt for suspended account", zap.String("user_id", user.ID.String()))
		return nil, err
	}

	user.RecordLogin(time.Now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return s.issue(user, 0)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked, so each one can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, ErrTokenExpired
		case errors.Is(err, auth.ErrMaxRefreshExceeded):
			return nil, ErrTokenMaxRefresh
		}
		return nil, ErrTokenInvalid
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	result, err := s.issue(user, claims.RefreshCount+1)
	if err != nil {
		return nil, err
	}
	s.revokeToken(ctx, claims.ID, claims.RemainingTTL())
	return result, nil
}

// Logout revokes the current access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.revocations == nil {
		return nil
	}
	if input.AccessTokenID != "" {
		if err := s.revocations.RevokeToken(ctx, input.AccessTokenID, input.AccessTokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		// an unusable refresh token needs no revocation
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			s.revokeToken(ctx, claims.ID, claims.RemainingTTL())
		}
	}
	return nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil {
		return nil
	}
	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.revocations.IsSessionRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) revokeToken(ctx context.Context, jti string, ttl time.Duration) {
	if s.revocations == nil || jti == "" || ttl <= 0 {
		return
	}
	if err := s.revocations.RevokeToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("Failed to revoke token", zap.String("jti", jti), zap.Error(err))
	}
}

func (s *AuthService) issue(user *identity.User, refreshCount int) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.TokenInput{
		TenantID:     user.TenantID,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         string(user.Role),
		RefreshCount: refreshCount,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &AuthResult{Tokens: pair, User: ToUserResponse(user)}, nil
}
