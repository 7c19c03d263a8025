// Package sequence issues per-scope document numbers.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// NumberingService hands out sequence values and formatted document numbers.
type NumberingService struct {
	counters sequence.CounterRepository
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewNumberingService creates a new NumberingService
func NewNumberingService(counters sequence.CounterRepository, metrics *telemetry.LedgerMetrics, l *zap.Logger) *NumberingService {
	if l == nil {
		l = zap.NewNop()
	}
	return &NumberingService{counters: counters, metrics: metrics, logger: l}
}

// Next returns the next value for scope in its own statement
func (s *NumberingService) Next(ctx context.Context, scope sequence.ScopeKey) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	return s.counters.Next(ctx, scope)
}

// NextDocumentNumber mints a document number inside the caller's
// transaction. If that transaction rolls back the number is released, so
// committed documents never leave gaps.
func (s *NumberingService) NextDocumentNumber(ctx context.Context, repos unitofwork.TransactionalRepositories, tenantID uuid.UUID, docType sequence.DocumentType, at time.Time) (string, error) {
	if tenantID == uuid.Nil {
		return "", shared.NewValidationError("Store ID is required")
	}
	if !docType.IsValid() {
		return "", shared.NewValidationError("Unknown document type: " + string(docType))
	}
	key := sequence.NewScopeKey(tenantID.String(), docType, at)
	scope, err := key.Parse()
	if err != nil {
		return "", err
	}
	seq, err := repos.Counters().Next(ctx, key)
	if err != nil {
		return "", err
	}
	s.metrics.RecordNumberIssued(ctx, string(docType))
	return scope.FormatNumber(seq), nil
}

// CurrentValue peeks at a counter without incrementing it. Tooling only.
func (s *NumberingService) CurrentValue(ctx context.Context, scope sequence.ScopeKey) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	return s.counters.Current(ctx, scope)
}

// Reset sets a counter back to zero. Tooling only.
func (s *NumberingService) Reset(ctx context.Context, scope sequence.ScopeKey) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := s.counters.Set(ctx, scope, 0); err != nil {
		return err
	}
	logger.FromContextOr(ctx, s.logger).Warn("Sequence counter reset", zap.String("scope_key", scope.String()))
	return nil
}

// Reseed raises a counter to value so the next number issued is value+1.
// The raise is a single conditional statement, so a concurrent Next can
// never be undone. A counter already above value is left untouched and the
// call is rejected; use Reset to lower a counter. Tooling only.
func (s *NumberingService) Reseed(ctx context.Context, scope sequence.ScopeKey, value int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if value < 0 {
		return shared.NewValidationError(fmt.Sprintf("Reseed value %d cannot be negative", value))
	}
	stored, err := s.counters.RaiseTo(ctx, scope, value)
	if err != nil {
		return err
	}
	if stored > value {
		return shared.NewValidationError(fmt.Sprintf("Reseed value %d is below the current value %d", value, stored))
	}
	logger.FromContextOr(ctx, s.logger).Warn("Sequence counter reseeded",
		zap.String("scope_key", scope.String()),
		zap.Int64("to", value))
	return nil
}
