package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil"
	"github.com/subhransupk/shelfcure-sub008/internal/testutil/ledgertest"
)

func newLedgerService(f *ledgertest.Fixture) *SupplierLedgerService {
	return NewSupplierLedgerService(f.Scope, f.Repos.Suppliers(), f.Repos.LedgerTransactions(), newRecorder(f))
}

func TestSupplierLedgerService_CreateSupplierWithOpeningBalance(t *testing.T) {
	f := ledgertest.New(t)
	svc := newLedgerService(f)
	ctx := context.Background()
	actor := testutil.TestUserID()
	opening := decimal.NewFromInt(1200)
	limit := decimal.NewFromInt(5000)

	resp, err := svc.CreateSupplier(ctx, f.TenantID, CreateSupplierRequest{
		Code:           "med-01",
		Name:           "MedSupply",
		CreditLimit:    &limit,
		CreditDays:     30,
		OpeningBalance: &opening,
	}, &actor)
	require.NoError(t, err)
	assert.Equal(t, "MED-01", resp.Code)
	assert.True(t, resp.OutstandingBalance.Equal(opening))
	assert.True(t, resp.AvailableCredit.Equal(decimal.NewFromInt(3800)))
	assert.Equal(t, 2, resp.Version)

	txs := f.Ledger(t, resp.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, partner.LedgerTransactionTypeCreditGrant, txs[0].TransactionType)
	assert.Equal(t, partner.ReferenceTypeOpeningBalance, txs[0].Reference.Type)
	f.RequireConsistent(t, resp.ID)

	_, err = svc.CreateSupplier(ctx, f.TenantID, CreateSupplierRequest{Code: "MED-01", Name: "Again"}, nil)
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestSupplierLedgerService_CreateSupplierValidation(t *testing.T) {
	f := ledgertest.New(t)
	svc := newLedgerService(f)
	negative := decimal.NewFromInt(-1)

	_, err := svc.CreateSupplier(context.Background(), f.TenantID, CreateSupplierRequest{Code: "X", Name: "X", OpeningBalance: &negative}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = svc.CreateSupplier(context.Background(), f.TenantID, CreateSupplierRequest{Code: " ", Name: "X"}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestSupplierLedgerService_Adjustments(t *testing.T) {
	f := ledgertest.New(t)
	svc := newLedgerService(f)
	ctx := context.Background()
	s := f.SeedSupplier(t, "SUP-1")

	up, err := svc.RecordAdjustment(ctx, f.TenantID, s.ID, AdjustmentRequest{
		Amount: decimal.NewFromInt(300), Direction: "increase", Reason: "opening stock", Notes: "migrated",
	}, nil)
	require.NoError(t, err)
	assert.True(t, up.NewBalance.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "opening stock: migrated", up.Transaction.Description)
	assert.Equal(t, "increase", up.Transaction.Metadata["direction"])

	_, err = svc.RecordAdjustment(ctx, f.TenantID, s.ID, AdjustmentRequest{
		Amount: decimal.NewFromInt(301), Direction: "decrease", Reason: "write-off",
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidBalance))

	_, err = svc.RecordAdjustment(ctx, f.TenantID, s.ID, AdjustmentRequest{
		Amount: decimal.NewFromInt(1), Direction: "decrease", Reason: "  ",
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	disc, err := svc.RecordDiscount(ctx, f.TenantID, s.ID, DiscountRequest{
		Amount: decimal.NewFromInt(50), Reason: "volume", DocumentNumber: "DN-7",
	}, nil)
	require.NoError(t, err)
	assert.True(t, disc.NewBalance.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "DN-7", disc.Transaction.DocumentNumber)

	f.RequireConsistent(t, s.ID)
}

func TestSupplierLedgerService_UpdateCreditTerms(t *testing.T) {
	f := ledgertest.New(t)
	svc := newLedgerService(f)
	s := f.SeedSupplier(t, "SUP-1")

	resp, err := svc.UpdateCreditTerms(context.Background(), f.TenantID, s.ID, UpdateCreditTermsRequest{
		CreditLimit: decimal.NewFromInt(2500), CreditDays: 45,
	})
	require.NoError(t, err)
	assert.True(t, resp.CreditLimit.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 45, resp.CreditDays)
	assert.Equal(t, 45, f.Supplier(t, s.ID).CreditDays)
}

func TestSupplierLedgerService_GetTransactionHistory(t *testing.T) {
	f := ledgertest.New(t)
	svc := newLedgerService(f)
	ctx := context.Background()
	s := f.SeedSupplier(t, "SUP-1")
	r := newRecorder(f)

	_, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypeCreditGrant, "500"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := r.Record(ctx, cmd(f, s.ID, partner.LedgerTransactionTypePayment, "100"))
		require.NoError(t, err)
	}

	history, err := svc.GetTransactionHistory(ctx, f.TenantID, s.ID, HistoryFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), history.Total)
	assert.Len(t, history.Transactions, 2)
	assert.True(t, history.CurrentBalance.Equal(decimal.NewFromInt(200)))

	payments, err := svc.GetTransactionHistory(ctx, f.TenantID, s.ID, HistoryFilter{Type: "payment"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), payments.Total)

	_, err = svc.GetTransactionHistory(ctx, f.TenantID, s.ID, HistoryFilter{Type: "refund"})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
