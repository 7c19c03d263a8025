package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartServiceSpan(context.Background(), "ledger", "record",
		SpanAttrSupplierID, "s-1", SpanAttrAttempt, 2)
	assert.NotEmpty(t, GetTraceID(ctx))
	AddEvent(span, "conflict", SpanAttrAttempt, 1)
	RecordError(span, errors.New("contention"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.record", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 2)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, p.Meter("test"))
	assert.Nil(t, p.Logs())
	assert.NoError(t, p.Shutdown(context.Background()))
}
