package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	userIDKey    contextKey = "user_id"
)

// WithContext returns a copy of ctx carrying l
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger carried by ctx or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, nil)
}

// FromContextOr returns the logger carried by ctx, or fallback when there is
// none, with trace_id and span_id attached when ctx holds a recording span.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok || l == nil {
		l = fallback
	}
	if l == nil {
		return zap.NewNop()
	}
	return WithTraceContext(ctx, l)
}

// WithRequestID stores the request ID and returns the enriched logger
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	l = l.With(zap.String("request_id", requestID))
	return WithContext(ctx, l), l
}

// WithTenantID stores the store (tenant) ID and returns the enriched logger
func WithTenantID(ctx context.Context, l *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	l = l.With(zap.String("tenant_id", tenantID))
	return WithContext(ctx, l), l
}

// WithUserID stores the acting user ID and returns the enriched logger
func WithUserID(ctx context.Context, l *zap.Logger, userID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, userIDKey, userID)
	l = l.With(zap.String("user_id", userID))
	return WithContext(ctx, l), l
}

// GetRequestID returns the request ID stored in ctx
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// GetTenantID returns the tenant ID stored in ctx
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// GetUserID returns the user ID stored in ctx
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// WithTraceContext adds trace_id and span_id from the span in ctx. Without a
// valid span the logger is returned unchanged.
func WithTraceContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
