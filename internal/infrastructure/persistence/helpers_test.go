package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil"
	"gorm.io/gorm"
)

func seedSupplier(t *testing.T, db *gorm.DB, tenantID uuid.UUID, code string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(tenantID, code, "Supplier "+code)
	require.NoError(t, err)
	require.NoError(t, NewGormSupplierRepository(db).Create(context.Background(), s))
	return s
}

func seedPurchase(t *testing.T, db *gorm.DB, supplier *partner.Supplier, number string, total string) *trade.Purchase {
	t.Helper()
	p, err := trade.NewPurchase(supplier.TenantID, supplier.ID, number, decimal.RequireFromString(total), nil, "")
	require.NoError(t, err)
	require.NoError(t, NewGormPurchaseRepository(db).Create(context.Background(), p))
	return p
}

func ledgerEntry(t *testing.T, s *partner.Supplier, txType partner.LedgerTransactionType, amount string, at time.Time) *partner.LedgerTransaction {
	t.Helper()
	change, err := partner.SignedChange(txType, decimal.RequireFromString(amount), "")
	require.NoError(t, err)
	previous, err := s.ApplyBalanceChange(txType, change, at)
	require.NoError(t, err)
	entry, err := partner.NewLedgerTransaction(partner.LedgerEntryParams{
		TenantID:        s.TenantID,
		SupplierID:      s.ID,
		Type:            txType,
		Amount:          decimal.RequireFromString(amount),
		BalanceChange:   change,
		PreviousBalance: previous,
		Reference:       partner.LedgerReference{Type: partner.ReferenceTypeManualAdjustment},
		TransactionDate: at,
		BalanceVersion:  s.Version,
	})
	require.NoError(t, err)
	return entry
}

func newDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}
