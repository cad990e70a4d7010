package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/infrastructure/logger"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// DefaultTenantID is used when neither JWT claims nor the header name a tenant
	DefaultTenantID uuid.UUID
	// Required rejects requests that resolve to no tenant
	Required bool
}

// TenantMiddleware resolves the tenant of the request.
// Extraction order: JWT claims > X-Tenant-ID header > configured default.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tenantID uuid.UUID

		// an authenticated caller cannot switch tenants through the header
		if jwtTenantID := GetJWTTenantID(c); jwtTenantID != "" {
			id, err := uuid.Parse(jwtTenantID)
			if err != nil {
				respondTenantError(c, "Invalid tenant ID format")
				return
			}
			tenantID = id
		} else if header := c.GetHeader(TenantHeaderKey); header != "" {
			id, err := uuid.Parse(header)
			if err != nil {
				respondTenantError(c, "Invalid tenant ID format")
				return
			}
			tenantID = id
		} else {
			tenantID = cfg.DefaultTenantID
		}

		if tenantID == uuid.Nil {
			if cfg.Required {
				respondTenantError(c, "Tenant identification required")
				return
			}
			c.Next()
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func respondTenantError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, message, getRequestID(c)))
}

// GetTenantUUID retrieves the resolved tenant ID from gin.Context.
// It returns uuid.Nil when TenantMiddleware did not run or resolved nothing.
func GetTenantUUID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
