package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// RequireRole allows the request only when the token's role is one of roles.
// It must run after the JWT middleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c)))
			return
		}
		for _, r := range roles {
			if identity.Role(claims.Role) == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "You do not have access to this resource", getRequestID(c)))
	}
}

// RequireAdmin restricts a route group to administrators
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin)
}
