package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RecordCommand describes one balance-affecting event
type RecordCommand struct {
	TenantID    uuid.UUID
	SupplierID  uuid.UUID
	Type        partner.LedgerTransactionType
	Amount      decimal.Decimal
	Direction   partner.AdjustmentDirection // adjustments only
	Reference   partner.LedgerReference
	Description string
	ActorID     *uuid.UUID
	Metadata    map[string]string
}

// Validate rejects malformed commands before anything is read or written
func (c RecordCommand) Validate() error {
	if c.TenantID == uuid.Nil {
		return shared.NewValidationError("Store ID is required")
	}
	if c.SupplierID == uuid.Nil {
		return shared.NewValidationError("Supplier ID is required")
	}
	if !c.Type.IsValid() {
		return shared.NewValidationError("Invalid ledger transaction type: " + string(c.Type))
	}
	_, err := partner.SignedChange(c.Type, c.Amount, c.Direction)
	return err
}

// TransactionRecorder is the only writer of a supplier's outstanding
// balance. Each call reads the supplier, applies the signed change, writes
// the supplier with a version check and appends the ledger row, all in one
// database transaction. A lost version check re-runs the whole unit.
type TransactionRecorder struct {
	scope   unitofwork.TransactionScope
	retry   unitofwork.RetryPolicy
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// RecorderOption configures a TransactionRecorder
type RecorderOption func(*TransactionRecorder)

// WithRetryPolicy overrides the contention retry policy
func WithRetryPolicy(p unitofwork.RetryPolicy) RecorderOption {
	return func(r *TransactionRecorder) { r.retry = p }
}

// WithMetrics attaches ledger metrics
func WithMetrics(m *telemetry.LedgerMetrics) RecorderOption {
	return func(r *TransactionRecorder) { r.metrics = m }
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *TransactionRecorder) { r.logger = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) RecorderOption {
	return func(r *TransactionRecorder) { r.now = now }
}

// NewTransactionRecorder creates a TransactionRecorder
func NewTransactionRecorder(scope unitofwork.TransactionScope, opts ...RecorderOption) *TransactionRecorder {
	r := &TransactionRecorder{
		scope:  scope,
		retry:  unitofwork.DefaultRetryPolicy(),
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TransactionRecorder) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, r.logger)
}

// Now returns the recorder's clock reading
func (r *TransactionRecorder) Now() time.Time {
	return r.now()
}

// Metrics returns the attached metrics, possibly nil
func (r *TransactionRecorder) Metrics() *telemetry.LedgerMetrics {
	return r.metrics
}

// RetryPolicy returns the recorder's policy with logging and metrics hooks
// for operation. Services that call RecordWithin use it to retry their own
// unit of work.
func (r *TransactionRecorder) RetryPolicy(operation string) unitofwork.RetryPolicy {
	p := r.retry
	p.OnRetry = func(ctx context.Context, attempt int, err error, wait time.Duration) {
		r.metrics.RecordRetry(ctx, operation)
		r.log(ctx).Warn("Optimistic lock conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}
	p.OnExhausted = func(ctx context.Context, attempts int) {
		r.metrics.RecordExhausted(ctx, operation)
		r.log(ctx).Error("Giving up after repeated optimistic lock conflicts",
			zap.String("operation", operation),
			zap.Int("attempts", attempts))
	}
	return p
}

// Record validates cmd and applies it in its own transaction, retrying on
// version conflicts.
func (r *TransactionRecorder) Record(ctx context.Context, cmd RecordCommand) (*partner.LedgerTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record",
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrSupplierID, cmd.SupplierID.String(),
		telemetry.SpanAttrTxType, string(cmd.Type))
	defer span.End()
	start := time.Now()

	if err := cmd.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var recorded *partner.LedgerTransaction
	err := r.RetryPolicy("record").Run(ctx, func(ctx context.Context) error {
		return r.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			tx, err := r.RecordWithin(ctx, repos, cmd)
			if err != nil {
				return err
			}
			recorded = tx
			return nil
		})
	})
	r.metrics.RecordDuration(ctx, "record", time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	r.Committed(ctx, recorded)
	return recorded, nil
}

// RecordWithin applies cmd using repositories bound to the caller's
// transaction. The caller owns commit, rollback and retry; the returned
// entry is only durable once the caller commits.
func (r *TransactionRecorder) RecordWithin(ctx context.Context, repos unitofwork.TransactionalRepositories, cmd RecordCommand) (*partner.LedgerTransaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	supplier, err := repos.Suppliers().FindByIDForTenant(ctx, cmd.TenantID, cmd.SupplierID)
	if err != nil {
		return nil, err
	}

	change, err := partner.SignedChange(cmd.Type, cmd.Amount, cmd.Direction)
	if err != nil {
		return nil, err
	}

	at := r.now()
	expectedVersion := supplier.Version
	previous, err := supplier.ApplyBalanceChange(cmd.Type, change, at)
	if err != nil {
		return nil, err
	}

	entry, err := partner.NewLedgerTransaction(partner.LedgerEntryParams{
		TenantID:        cmd.TenantID,
		SupplierID:      cmd.SupplierID,
		Type:            cmd.Type,
		Amount:          cmd.Amount,
		BalanceChange:   change,
		PreviousBalance: previous,
		Reference:       cmd.Reference,
		Description:     cmd.Description,
		ActorID:         cmd.ActorID,
		Metadata:        cmd.Metadata,
		TransactionDate: at,
		BalanceVersion:  supplier.Version,
	})
	if err != nil {
		return nil, err
	}

	if err := repos.Suppliers().SaveWithLock(ctx, supplier, expectedVersion); err != nil {
		return nil, err
	}
	if err := repos.LedgerTransactions().Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Committed logs and counts entries after their transaction committed
func (r *TransactionRecorder) Committed(ctx context.Context, entries ...*partner.LedgerTransaction) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		r.metrics.RecordTransaction(ctx, string(e.TransactionType))
		r.log(ctx).Info("Ledger transaction recorded",
			zap.String("transaction_id", e.ID.String()),
			zap.String("supplier_id", e.SupplierID.String()),
			zap.String("type", string(e.TransactionType)),
			zap.String("amount", e.Amount.String()),
			zap.String("previous_balance", e.PreviousBalance.String()),
			zap.String("new_balance", e.NewBalance.String()),
			zap.Int("balance_version", e.BalanceVersion))
	}
}
