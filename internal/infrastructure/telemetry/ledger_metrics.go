package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrTransactionType = attribute.Key("transaction_type")
	AttrOperation       = attribute.Key("operation")
	AttrDocumentType    = attribute.Key("document_type")
	AttrOutcome         = attribute.Key("outcome")
)

// LedgerMetrics records ledger and numbering activity. A nil *LedgerMetrics
// is valid and records nothing.
type LedgerMetrics struct {
	transactions      metric.Int64Counter
	retries           metric.Int64Counter
	exhausted         metric.Int64Counter
	drift             metric.Int64Counter
	numbersIssued     metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewLedgerMetrics: meter cannot be nil")
	}
	m := &LedgerMetrics{}
	var err error

	if m.transactions, err = meter.Int64Counter("ledger.transactions",
		metric.WithDescription("Ledger transactions recorded"),
		metric.WithUnit("{transactions}")); err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.transactions: %w", err)
	}
	if m.retries, err = meter.Int64Counter("ledger.contention.retries",
		metric.WithDescription("Optimistic-lock conflicts that were retried"),
		metric.WithUnit("{retries}")); err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.contention.retries: %w", err)
	}
	if m.exhausted, err = meter.Int64Counter("ledger.contention.exhausted",
		metric.WithDescription("Operations aborted after exhausting retries"),
		metric.WithUnit("{operations}")); err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.contention.exhausted: %w", err)
	}
	if m.drift, err = meter.Int64Counter("ledger.drift.detected",
		metric.WithDescription("Supplier balances found inconsistent with their ledger"),
		metric.WithUnit("{suppliers}")); err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.drift.detected: %w", err)
	}
	if m.numbersIssued, err = meter.Int64Counter("sequence.numbers.issued",
		metric.WithDescription("Document numbers issued"),
		metric.WithUnit("{numbers}")); err != nil {
		return nil, fmt.Errorf("failed to create counter sequence.numbers.issued: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("ledger.operation.duration",
		metric.WithDescription("Duration of ledger operations including retries"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500)); err != nil {
		return nil, fmt.Errorf("failed to create histogram ledger.operation.duration: %w", err)
	}
	return m, nil
}

// RecordTransaction counts a committed ledger transaction
func (m *LedgerMetrics) RecordTransaction(ctx context.Context, txType string) {
	if m == nil {
		return
	}
	m.transactions.Add(ctx, 1, metric.WithAttributes(AttrTransactionType.String(txType)))
}

// RecordRetry counts a retried conflict
func (m *LedgerMetrics) RecordRetry(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}

// RecordExhausted counts an operation that gave up on contention
func (m *LedgerMetrics) RecordExhausted(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.exhausted.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}

// RecordDrift counts a supplier found with drift
func (m *LedgerMetrics) RecordDrift(ctx context.Context) {
	if m == nil {
		return
	}
	m.drift.Add(ctx, 1)
}

// RecordNumberIssued counts an issued document number
func (m *LedgerMetrics) RecordNumberIssued(ctx context.Context, documentType string) {
	if m == nil {
		return
	}
	m.numbersIssued.Add(ctx, 1, metric.WithAttributes(AttrDocumentType.String(documentType)))
}

// RecordDuration records how long an operation took
func (m *LedgerMetrics) RecordDuration(ctx context.Context, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.Record(ctx, float64(d.Microseconds())/1000.0,
		metric.WithAttributes(AttrOperation.String(operation), AttrOutcome.String(outcome)))
}
