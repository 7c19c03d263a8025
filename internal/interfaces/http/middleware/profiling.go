package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
)

// Profiling attaches route, method and tenant labels to the samples
// taken while the request is handled. Unmatched routes are left unlabelled.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}
		if tenantID, ok := GetTenantID(c); ok {
			labels[telemetry.ProfilingLabelTenantID] = tenantID.String()
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
