package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin. Spans are named after the matched route; request
// attributes are added by SpanAttributes.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes records request_id, tenant_id and user_id on the server
// span and marks it failed on 5xx responses. otelgin ends the span before
// returning, so this must run inside it, after Tenant and User.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()

		if status := c.Writer.Status(); span.IsRecording() && status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if tenantID, ok := GetTenantID(c); ok {
		span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
	}
	if userID := GetUserID(c); userID != nil {
		span.SetAttributes(attribute.String("user_id", userID.String()))
	}
	if key := GetIdempotencyKey(c); key != "" {
		span.SetAttributes(attribute.String("idempotency_key", key))
	}
}
