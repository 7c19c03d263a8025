package reconciliation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil/ledgertest"
)

func newChecker(f *ledgertest.Fixture, opts ...Option) *BalanceChecker {
	opts = append([]Option{
		WithClock(f.Clock.Now),
		WithRetryPolicy(ledgertest.FastRetry(3)),
	}, opts...)
	return NewBalanceChecker(f.Scope, opts...)
}

// seedHistory records a credit of 1000 followed by a payment of 400
func seedHistory(t *testing.T, f *ledgertest.Fixture, code string) *partner.Supplier {
	t.Helper()
	s := f.SeedSupplier(t, code)
	rec := partnerapp.NewTransactionRecorder(f.Scope,
		partnerapp.WithClock(f.Clock.Now),
		partnerapp.WithRetryPolicy(ledgertest.FastRetry(3)))

	for _, step := range []struct {
		typ    partner.LedgerTransactionType
		amount int64
	}{
		{partner.LedgerTransactionTypeCreditGrant, 1000},
		{partner.LedgerTransactionTypePayment, 400},
	} {
		_, err := rec.Record(context.Background(), partnerapp.RecordCommand{
			TenantID:   f.TenantID,
			SupplierID: s.ID,
			Type:       step.typ,
			Amount:     decimal.NewFromInt(step.amount),
			Reference:  partner.LedgerReference{Type: partner.ReferenceTypeManualAdjustment},
		})
		require.NoError(t, err)
	}
	return s
}

func TestBalanceChecker_VerifyConsistent(t *testing.T) {
	f := ledgertest.New(t)
	s := seedHistory(t, f, "SUP-1")

	report, err := newChecker(f).VerifyBalance(context.Background(), f.TenantID, s.ID)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.False(t, report.DriftDetected)
	assert.True(t, report.Calculated.Equal(decimal.NewFromInt(600)))
	assert.True(t, report.Stored.Equal(decimal.NewFromInt(600)))
	assert.True(t, report.Drift.IsZero())
	assert.Equal(t, 2, report.TransactionCount)
	assert.Empty(t, report.ChainBreaks)
}

func TestBalanceChecker_DriftAndRepair(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	s := seedHistory(t, f, "SUP-1")
	f.ForceBalance(t, s.ID, decimal.NewFromInt(650))
	c := newChecker(f)

	report, err := c.VerifyBalance(ctx, f.TenantID, s.ID)
	require.NoError(t, err)
	assert.False(t, report.OK)
	assert.True(t, report.DriftDetected)
	assert.True(t, report.Drift.Equal(decimal.NewFromInt(50)))

	ledgerBefore := f.Ledger(t, s.ID)
	actor := uuid.New()
	result, err := c.RepairBalance(ctx, f.TenantID, s.ID, &actor, "manual fix")
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	require.NotNil(t, result.AuditID)
	assert.True(t, result.Stored.Equal(decimal.NewFromInt(650)))

	stored := f.Supplier(t, s.ID)
	assert.True(t, stored.OutstandingBalance.Equal(decimal.NewFromInt(600)))
	assert.Len(t, f.Ledger(t, s.ID), len(ledgerBefore), "repair must not touch the ledger")
	f.RequireConsistent(t, s.ID)

	kind := partner.AuditKindBalanceRepair
	audits, err := f.Repos.Audits().ListByTenant(ctx, f.TenantID, &kind)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, *result.AuditID, audits[0].ID)
	assert.True(t, audits[0].StoredBefore.Equal(decimal.NewFromInt(650)))
	assert.Equal(t, "manual fix", audits[0].Note)

	again, err := c.RepairBalance(ctx, f.TenantID, s.ID, &actor, "manual fix")
	require.NoError(t, err)
	assert.False(t, again.Repaired)
	assert.Nil(t, again.AuditID)
	assert.Equal(t, stored.Version, f.Supplier(t, s.ID).Version)

	audits, err = f.Repos.Audits().ListByTenant(ctx, f.TenantID, &kind)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestBalanceChecker_VerifyIsReadOnly(t *testing.T) {
	f := ledgertest.New(t)
	s := seedHistory(t, f, "SUP-1")
	f.ForceBalance(t, s.ID, decimal.NewFromInt(10))
	before := f.Supplier(t, s.ID)

	c := newChecker(f)
	first, err := c.VerifyBalance(context.Background(), f.TenantID, s.ID)
	require.NoError(t, err)
	second, err := c.VerifyBalance(context.Background(), f.TenantID, s.ID)
	require.NoError(t, err)

	assert.Equal(t, first.OK, second.OK)
	assert.True(t, first.Drift.Equal(second.Drift))
	assert.True(t, first.Drift.Equal(decimal.NewFromInt(-590)))
	after := f.Supplier(t, s.ID)
	assert.Equal(t, before.Version, after.Version)
	assert.True(t, after.OutstandingBalance.Equal(decimal.NewFromInt(10)))
}

func TestBalanceChecker_Epsilon(t *testing.T) {
	f := ledgertest.New(t)
	s := seedHistory(t, f, "SUP-1")
	f.ForceBalance(t, s.ID, decimal.RequireFromString("600.0001"))

	report, err := newChecker(f).VerifyBalance(context.Background(), f.TenantID, s.ID)
	require.NoError(t, err)
	assert.True(t, report.OK)

	strict, err := newChecker(f, WithDriftEpsilon(decimal.RequireFromString("0.00005"))).
		VerifyBalance(context.Background(), f.TenantID, s.ID)
	require.NoError(t, err)
	assert.True(t, strict.DriftDetected)
}

func TestBalanceChecker_ChainBreak(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	s := seedHistory(t, f, "SUP-1")
	current := f.Supplier(t, s.ID)

	broken, err := partner.NewLedgerTransaction(partner.LedgerEntryParams{
		TenantID:        f.TenantID,
		SupplierID:      s.ID,
		Type:            partner.LedgerTransactionTypeCreditGrant,
		Amount:          decimal.NewFromInt(100),
		BalanceChange:   decimal.NewFromInt(100),
		PreviousBalance: decimal.NewFromInt(900),
		Reference:       partner.LedgerReference{Type: partner.ReferenceTypeManualAdjustment},
		TransactionDate: f.Clock.Now(),
		BalanceVersion:  current.Version + 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.Repos.LedgerTransactions().Append(ctx, broken))

	report, err := newChecker(f).VerifyBalance(ctx, f.TenantID, s.ID)
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.ChainBreaks, 1)
	assert.Equal(t, broken.ID, report.ChainBreaks[0].TransactionID)
	assert.True(t, report.ChainBreaks[0].ExpectedPrevious.Equal(decimal.NewFromInt(600)))
}

func TestBalanceChecker_FindBalanceMismatches(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	good := seedHistory(t, f, "SUP-1")
	bad := seedHistory(t, f, "SUP-2")
	f.ForceBalance(t, bad.ID, decimal.NewFromInt(1))

	c := newChecker(f)
	mismatches, err := c.FindBalanceMismatches(ctx, &f.TenantID)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, bad.ID, mismatches[0].SupplierID)
	assert.NotEqual(t, good.ID, mismatches[0].SupplierID)

	all, err := c.FindBalanceMismatches(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	other := uuid.New()
	none, err := c.FindBalanceMismatches(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBalanceChecker_UnknownSupplier(t *testing.T) {
	f := ledgertest.New(t)
	_, err := newChecker(f).VerifyBalance(context.Background(), f.TenantID, uuid.New())
	require.Error(t, err)
}
