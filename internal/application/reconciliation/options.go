// Package reconciliation detects and repairs drift between stored
// aggregates and the records they are derived from: supplier balances
// against the ledger, and sequence counters against issued document numbers.
package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type settings struct {
	retry   unitofwork.RetryPolicy
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
	now     func() time.Time
	epsilon decimal.Decimal
}

func defaultSettings() settings {
	return settings{
		retry:   unitofwork.DefaultRetryPolicy(),
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		epsilon: DriftEpsilon,
	}
}

// Option configures the reconciliation services
type Option func(*settings)

// WithRetryPolicy overrides the retry policy used by repairs
func WithRetryPolicy(p unitofwork.RetryPolicy) Option {
	return func(s *settings) { s.retry = p }
}

// WithMetrics attaches ledger metrics
func WithMetrics(m *telemetry.LedgerMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithLogger sets the fallback logger
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithDriftEpsilon sets the largest difference treated as rounding noise
func WithDriftEpsilon(eps decimal.Decimal) Option {
	return func(s *settings) {
		if eps.IsPositive() {
			s.epsilon = eps
		}
	}
}
