// Package ledgertest wires the GORM repositories over an in-memory SQLite
// database for service-level tests.
package ledgertest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil"
	"gorm.io/gorm"
)

// Fixture is a ready-to-use ledger store
type Fixture struct {
	DB       *gorm.DB
	Scope    unitofwork.TransactionScope
	Repos    *unitofwork.Repositories
	Clock    *testutil.Clock
	TenantID uuid.UUID
}

// New creates a fixture whose clock starts at 2024-03-15 09:00 UTC
func New(t *testing.T) *Fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &Fixture{
		DB:       db,
		Scope:    persistence.NewGormTransactionScope(db),
		Repos:    persistence.NewRepositories(db),
		Clock:    testutil.NewClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)),
		TenantID: testutil.TestTenantID(),
	}
}

// FastRetry is a retry policy with millisecond waits
func FastRetry(attempts int) unitofwork.RetryPolicy {
	return unitofwork.RetryPolicy{
		MaxAttempts:         attempts,
		InitialInterval:     time.Millisecond,
		MaxInterval:         2 * time.Millisecond,
		Multiplier:          2,
		RandomizationFactor: 0.5,
	}
}

// SeedSupplier inserts an active supplier with a zero balance
func (f *Fixture) SeedSupplier(t *testing.T, code string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(f.TenantID, code, "Supplier "+code)
	require.NoError(t, err)
	require.NoError(t, s.SetCreditTerms(decimal.NewFromInt(100000), 30))
	require.NoError(t, f.Repos.Suppliers().Create(context.Background(), s))
	return s
}

// Supplier reloads a supplier
func (f *Fixture) Supplier(t *testing.T, id uuid.UUID) *partner.Supplier {
	t.Helper()
	s, err := f.Repos.Suppliers().FindByIDForTenant(context.Background(), f.TenantID, id)
	require.NoError(t, err)
	return s
}

// Ledger returns a supplier's full history in commit order
func (f *Fixture) Ledger(t *testing.T, supplierID uuid.UUID) []*partner.LedgerTransaction {
	t.Helper()
	txs, err := f.Repos.LedgerTransactions().ListForSupplier(context.Background(), f.TenantID, supplierID)
	require.NoError(t, err)
	return txs
}

// RequireConsistent asserts that the stored balance equals the ledger fold
// and that the chain has no breaks
func (f *Fixture) RequireConsistent(t *testing.T, supplierID uuid.UUID) {
	t.Helper()
	s := f.Supplier(t, supplierID)
	txs := f.Ledger(t, supplierID)
	partner.SortLedger(txs)
	fold := partner.FoldBalance(txs)
	require.True(t, s.OutstandingBalance.Equal(fold), "stored %s, ledger fold %s", s.OutstandingBalance, fold)
	require.Empty(t, partner.FindChainBreaks(txs))
	require.False(t, s.OutstandingBalance.IsNegative())
}

// ForceBalance writes a balance straight into the supplier row, bypassing
// the ledger. It simulates drift.
func (f *Fixture) ForceBalance(t *testing.T, supplierID uuid.UUID, balance decimal.Decimal) {
	t.Helper()
	require.NoError(t, f.DB.Exec("UPDATE suppliers SET outstanding_balance = ? WHERE id = ?", balance, supplierID).Error)
}

// ConflictingScope wraps a scope and makes the next Failures supplier
// writes lose their version check
type ConflictingScope struct {
	Inner    unitofwork.TransactionScope
	failures atomic.Int32
	Attempts atomic.Int32
}

// NewConflictingScope creates a scope that injects failures conflicts
func NewConflictingScope(inner unitofwork.TransactionScope, failures int) *ConflictingScope {
	s := &ConflictingScope{Inner: inner}
	s.failures.Store(int32(failures))
	return s
}

// Execute implements unitofwork.TransactionScope
func (s *ConflictingScope) Execute(ctx context.Context, fn func(repos unitofwork.TransactionalRepositories) error) error {
	s.Attempts.Add(1)
	return s.Inner.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		return fn(conflictingRepos{TransactionalRepositories: repos, scope: s})
	})
}

type conflictingRepos struct {
	unitofwork.TransactionalRepositories
	scope *ConflictingScope
}

func (r conflictingRepos) Suppliers() partner.SupplierRepository {
	return conflictingSuppliers{SupplierRepository: r.TransactionalRepositories.Suppliers(), scope: r.scope}
}

type conflictingSuppliers struct {
	partner.SupplierRepository
	scope *ConflictingScope
}

func (s conflictingSuppliers) SaveWithLock(ctx context.Context, supplier *partner.Supplier, expectedVersion int) error {
	if s.scope.failures.Add(-1) >= 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Supplier was modified by another transaction")
	}
	return s.SupplierRepository.SaveWithLock(ctx, supplier, expectedVersion)
}
