package identity

import "github.com/memberportal/backend/internal/domain/shared"

var (
	// Token errors surface as 401 responses
	ErrTokenExpired     = shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrTokenInvalid     = shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	ErrTokenMaxRefresh  = shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	ErrTokenRevoked     = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	ErrCannotModifySelf = shared.NewDomainError("CANNOT_MODIFY_SELF", "Administrators cannot change their own status or role")
)
