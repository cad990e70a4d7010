package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/infrastructure/telemetry"
)

// Profiling attaches route, method and tenant pprof labels to the rest of
// the handler chain. Place it after the tenant middleware. The route is
// gin's pattern, never the raw path, so label cardinality stays bounded.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		labels := map[string]string{
			telemetry.ProfilingLabelMethod:   c.Request.Method,
			telemetry.ProfilingLabelRoute:    c.FullPath(),
			telemetry.ProfilingLabelTenantID: getTenantID(c),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
