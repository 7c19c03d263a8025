package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestLedgerMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransaction(ctx, "payment")
	m.RecordTransaction(ctx, "credit_grant")
	m.RecordRetry(ctx, "record")
	m.RecordExhausted(ctx, "record")
	m.RecordDrift(ctx)
	m.RecordNumberIssued(ctx, "return")
	m.RecordDuration(ctx, "record", 12*time.Millisecond, nil)
	m.RecordDuration(ctx, "record", 3*time.Millisecond, errors.New("boom"))

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["ledger.transactions"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ledger.contention.retries"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ledger.contention.exhausted"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ledger.drift.detected"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["sequence.numbers.issued"]))

	hist, ok := metrics["ledger.operation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordTransaction(context.Background(), "payment")
		m.RecordDrift(context.Background())
		m.RecordDuration(context.Background(), "record", time.Second, nil)
	})
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(nil)
	assert.Error(t, err)
}
