package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil"
)

func TestGormTransactionScope_RollsBackTogether(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	tenantID := testutil.TestTenantID()
	s := seedSupplier(t, db, tenantID, "SUP-1")
	scope := NewGormTransactionScope(db)
	boom := errors.New("boom")

	err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		loaded, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, s.ID)
		if err != nil {
			return err
		}
		entry := ledgerEntry(t, loaded, partner.LedgerTransactionTypeCreditGrant, "100", time.Now().UTC())
		if err := repos.Suppliers().SaveWithLock(ctx, loaded, 1); err != nil {
			return err
		}
		if err := repos.LedgerTransactions().Append(ctx, entry); err != nil {
			return err
		}
		if _, err := repos.Counters().Next(ctx, "store:purchase:2024:03"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	repos := NewRepositories(db)
	stored, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.OutstandingBalance.IsZero())
	assert.Equal(t, 1, stored.Version)

	history, err := repos.LedgerTransactions().ListForSupplier(ctx, tenantID, s.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	current, err := repos.Counters().Current(ctx, "store:purchase:2024:03")
	require.NoError(t, err)
	assert.Equal(t, int64(0), current, "a rolled back document must not consume a number")
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	tenantID := testutil.TestTenantID()
	s := seedSupplier(t, db, tenantID, "SUP-1")

	err := NewGormTransactionScope(db).Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		loaded, err := repos.Suppliers().FindForShare(ctx, tenantID, s.ID)
		if err != nil {
			return err
		}
		entry := ledgerEntry(t, loaded, partner.LedgerTransactionTypeCreditGrant, "100", time.Now().UTC())
		if err := repos.Suppliers().SaveWithLock(ctx, loaded, 1); err != nil {
			return err
		}
		return repos.LedgerTransactions().Append(ctx, entry)
	})
	require.NoError(t, err)

	stored, err := NewGormSupplierRepository(db).FindByIDForTenant(ctx, tenantID, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.OutstandingBalance.Equal(decimal.NewFromInt(100)))
}
