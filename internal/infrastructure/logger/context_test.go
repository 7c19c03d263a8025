package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContextOr_PrefersContextLogger(t *testing.T) {
	ctxCore, ctxLogs := observer.New(zapcore.InfoLevel)
	fbCore, fbLogs := observer.New(zapcore.InfoLevel)

	ctx := WithContext(context.Background(), zap.New(ctxCore))
	FromContextOr(ctx, zap.New(fbCore)).Info("payment recorded")

	assert.Equal(t, 1, ctxLogs.Len())
	assert.Equal(t, 0, fbLogs.Len())
}

func TestFromContextOr_UsesFallback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	FromContextOr(context.Background(), zap.New(core)).Info("counter reset")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "counter reset", logs.All()[0].Message)
}

func TestFromContext_NoLoggerIsNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestRequestScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithTenantID(ctx, l, "tenant-1")
	ctx, _ = WithUserID(ctx, l, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))

	FromContext(ctx).Info("supplier adjusted")
	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestWithTraceContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	FromContextOr(ctx, base).Info("traced")
	WithTraceContext(context.Background(), base).Info("untraced")

	require.Equal(t, 2, logs.Len())
	traced := fieldMap(logs.All()[0])
	assert.Equal(t, traceID.String(), traced["trace_id"])
	assert.Equal(t, spanID.String(), traced["span_id"])
	assert.NotContains(t, fieldMap(logs.All()[1]), "trace_id")
}
