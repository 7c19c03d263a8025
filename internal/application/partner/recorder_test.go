package partner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil/ledgertest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRecorder(f *ledgertest.Fixture, opts ...RecorderOption) *TransactionRecorder {
	opts = append([]RecorderOption{
		WithClock(f.Clock.Now),
		WithRetryPolicy(ledgertest.FastRetry(5)),
	}, opts...)
	return NewTransactionRecorder(f.Scope, opts...)
}

func cmd(f *ledgertest.Fixture, supplierID uuid.UUID, txType partner.LedgerTransactionType, amount string) RecordCommand {
	return RecordCommand{
		TenantID:   f.TenantID,
		SupplierID: supplierID,
		Type:       txType,
		Amount:     decimal.RequireFromString(amount),
		Reference:  partner.LedgerReference{Type: partner.ReferenceTypeManualAdjustment},
	}
}

func TestRecordCommand_Validate(t *testing.T) {
	valid := RecordCommand{
		TenantID:   uuid.New(),
		SupplierID: uuid.New(),
		Type:       partner.LedgerTransactionTypePayment,
		Amount:     decimal.NewFromInt(10),
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *RecordCommand)
	}{
		{"missing store", func(c *RecordCommand) { c.TenantID = uuid.Nil }},
		{"missing supplier", func(c *RecordCommand) { c.SupplierID = uuid.Nil }},
		{"unknown type", func(c *RecordCommand) { c.Type = "refund" }},
		{"zero amount", func(c *RecordCommand) { c.Amount = decimal.Zero }},
		{"negative amount", func(c *RecordCommand) { c.Amount = decimal.NewFromInt(-5) }},
		{"adjustment without direction", func(c *RecordCommand) { c.Type = partner.LedgerTransactionTypeAdjustment }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.True(t, errors.Is(c.Validate(), shared.ErrValidation))
		})
	}
}

func TestTransactionRecorder_Record(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	s := f.SeedSupplier(t, "SUP-1")
	r := newRecorder(f)

	grant, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "1000"))
	require.NoError(t, err)
	assert.True(t, grant.PreviousBalance.IsZero())
	assert.True(t, grant.NewBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, grant.BalanceVersion)

	payment, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypePayment, "250.25"))
	require.NoError(t, err)
	assert.True(t, payment.BalanceChange.Equal(decimal.RequireFromString("-250.25")))
	assert.True(t, payment.PreviousBalance.Equal(grant.NewBalance))
	assert.Equal(t, 3, payment.BalanceVersion)

	stored := f.Supplier(t, s.ID)
	assert.True(t, stored.OutstandingBalance.Equal(decimal.RequireFromString("749.75")))
	assert.Equal(t, 3, stored.Version)
	require.NotNil(t, stored.LastPaymentDate)
	f.RequireConsistent(t, s.ID)
}

func TestTransactionRecorder_RejectsNegativeBalance(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	s := f.SeedSupplier(t, "SUP-1")
	r := newRecorder(f)

	_, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "100"))
	require.NoError(t, err)

	_, err = r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypePayment, "100.01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidBalance))

	var violation *shared.InvariantViolationError
	require.True(t, errors.As(err, &violation))

	assert.Len(t, f.Ledger(t, s.ID), 1, "a rejected entry must not be written")
	assert.True(t, f.Supplier(t, s.ID).OutstandingBalance.Equal(decimal.NewFromInt(100)))
}

func TestTransactionRecorder_UnknownSupplier(t *testing.T) {
	f := ledgertest.New(t)
	_, err := newRecorder(f).Record(context.Background(), cmd(f, uuid.New(), partner.LedgerTransactionTypeCreditGrant, "10"))
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestTransactionRecorder_RetriesConflicts(t *testing.T) {
	f := ledgertest.New(t)
	s := f.SeedSupplier(t, "SUP-1")
	core, logs := observer.New(zapcore.WarnLevel)

	scope := ledgertest.NewConflictingScope(f.Scope, 2)
	r := NewTransactionRecorder(scope,
		WithClock(f.Clock.Now),
		WithRetryPolicy(ledgertest.FastRetry(5)),
		WithLogger(zap.New(core)))

	entry, err := r.Record(context.Background(), cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "40"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), scope.Attempts.Load())
	assert.Equal(t, 2, entry.BalanceVersion)
	assert.Equal(t, 2, logs.FilterMessage("Optimistic lock conflict, retrying").Len())
	assert.Len(t, f.Ledger(t, s.ID), 1)
	f.RequireConsistent(t, s.ID)
}

func TestTransactionRecorder_ContentionAfterBudget(t *testing.T) {
	f := ledgertest.New(t)
	s := f.SeedSupplier(t, "SUP-1")

	scope := ledgertest.NewConflictingScope(f.Scope, 100)
	r := NewTransactionRecorder(scope, WithRetryPolicy(ledgertest.FastRetry(3)))

	_, err := r.Record(context.Background(), cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "40"))
	assert.True(t, errors.Is(err, shared.ErrContention))
	assert.Equal(t, int32(3), scope.Attempts.Load())
	assert.Empty(t, f.Ledger(t, s.ID))
	assert.Equal(t, 1, f.Supplier(t, s.ID).Version)
}

func TestTransactionRecorder_ConcurrentWritersKeepTheChain(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	s := f.SeedSupplier(t, "SUP-1")
	r := newRecorder(f, WithRetryPolicy(ledgertest.FastRetry(50)))

	_, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "10000"))
	require.NoError(t, err)

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txType := partner.LedgerTransactionTypePayment
			if i%2 == 0 {
				txType = partner.LedgerTransactionTypeCreditGrant
			}
			if _, err := r.Record(ctx, cmd(f, s.ID, txType, "25")); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	txs := f.Ledger(t, s.ID)
	require.Len(t, txs, writers+1)
	for i, tx := range txs {
		assert.Equal(t, i+2, tx.BalanceVersion, "versions form a gapless chain")
	}
	assert.True(t, f.Supplier(t, s.ID).OutstandingBalance.Equal(decimal.NewFromInt(10000)))
	f.RequireConsistent(t, s.ID)
}
