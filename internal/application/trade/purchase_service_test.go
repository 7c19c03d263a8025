package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
)

func TestPurchaseService_Lifecycle(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	tenant := s.f.TenantID

	created, err := s.purchases.CreatePurchase(ctx, tenant, CreatePurchaseRequest{
		SupplierID:  s.supplier.ID,
		TotalAmount: decimal.NewFromInt(1000),
		Notes:       "monthly restock",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PO-202403-0001", created.PurchaseNumber)
	assert.Equal(t, "draft", created.Status)
	require.NotNil(t, created.DueDate, "due date defaults to the supplier's credit days")
	assert.Equal(t, "2024-04-14", created.DueDate.Format("2006-01-02"))

	ordered, err := s.purchases.MarkOrdered(ctx, tenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ordered", ordered.Status)

	_, err = s.purchases.MarkOrdered(ctx, tenant, created.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	received, err := s.purchases.MarkReceived(ctx, tenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "received", received.Status)

	completed, err := s.purchases.Complete(ctx, tenant, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	assert.True(t, completed.CreditAmount.Equal(decimal.NewFromInt(1000)))

	_, err = s.purchases.Complete(ctx, tenant, created.ID, nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	txs := s.f.Ledger(t, s.supplier.ID)
	require.Len(t, txs, 1, "completing twice must not grant credit twice")
	assert.Equal(t, partner.LedgerTransactionTypeCreditGrant, txs[0].TransactionType)
	assert.Equal(t, partner.ReferenceTypePurchase, txs[0].Reference.Type)
	assert.Equal(t, "PO-202403-0001", txs[0].Reference.DocumentNumber)

	supplier := s.f.Supplier(t, s.supplier.ID)
	assert.True(t, supplier.OutstandingBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, supplier.TotalPurchases)
	assert.True(t, supplier.TotalPurchaseAmount.Equal(decimal.NewFromInt(1000)))

	_, err = s.purchases.Cancel(ctx, tenant, created.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPurchaseService_CreatePurchaseRules(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{SupplierID: s.supplier.ID}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID: uuid.New(), TotalAmount: decimal.NewFromInt(1),
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	inactive := s.f.SeedSupplier(t, "SUP-OFF")
	inactive.Deactivate()
	require.NoError(t, s.f.Repos.Suppliers().SaveWithLock(ctx, inactive, 1))
	_, err = s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID: inactive.ID, TotalAmount: decimal.NewFromInt(1),
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	second, err := s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID: s.supplier.ID, TotalAmount: decimal.NewFromInt(5),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PO-202403-0001", second.PurchaseNumber, "failed creations leave no gap")
}

func TestPurchaseService_CancelDraft(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	created, err := s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID: s.supplier.ID, TotalAmount: decimal.NewFromInt(10),
	}, nil)
	require.NoError(t, err)

	cancelled, err := s.purchases.Cancel(ctx, s.f.TenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Empty(t, s.f.Ledger(t, s.supplier.ID))
}

func TestPurchaseService_CreateReturn(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.completedPurchase(t, "1000")

	ret, err := s.purchases.CreateReturn(ctx, s.f.TenantID, p.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(200), Reason: "expired stock",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PR-202403-0001", ret.ReturnNumber)
	require.NotNil(t, ret.SupplierBalance)
	assert.True(t, ret.SupplierBalance.Equal(decimal.NewFromInt(800)))
	require.NotNil(t, ret.LedgerTransactionID)

	entry, err := s.f.Repos.LedgerTransactions().FindByID(ctx, s.f.TenantID, *ret.LedgerTransactionID)
	require.NoError(t, err)
	assert.Equal(t, partner.LedgerTransactionTypeReturn, entry.TransactionType)
	assert.Equal(t, partner.ReferenceTypePurchaseReturn, entry.Reference.Type)
	assert.Equal(t, ret.ID, *entry.Reference.ID)

	_, err = s.purchases.CreateReturn(ctx, s.f.TenantID, p.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(801), Reason: "too much",
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	purchase, err := s.purchases.GetPurchase(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, purchase.ReturnedAmount.Equal(decimal.NewFromInt(200)))

	list, err := s.purchases.ListReturns(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].SupplierBalance)

	second, err := s.purchases.CreateReturn(ctx, s.f.TenantID, p.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(100), Reason: "broken seal",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PR-202403-0002", second.ReturnNumber, "the failed return did not consume a number")

	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPurchaseService_ReturnThenPaymentsSettlePurchase(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.completedPurchase(t, "1000")

	_, err := s.purchases.CreateReturn(ctx, s.f.TenantID, p.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(400), Reason: "short expiry",
	}, nil)
	require.NoError(t, err)

	purchase, err := s.purchases.GetPurchase(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, purchase.BalanceAmount.Equal(decimal.NewFromInt(600)))

	_, err = s.pay(p.ID, "1000")
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))

	partial, err := s.pay(p.ID, "250")
	require.NoError(t, err)
	assert.Equal(t, "partial", partial.PaymentStatus)
	assert.True(t, partial.NewBalance.Equal(decimal.NewFromInt(350)))
	assert.True(t, partial.SupplierBalance.Equal(decimal.NewFromInt(350)))

	final, err := s.pay(p.ID, "350")
	require.NoError(t, err)
	assert.Equal(t, "paid", final.PaymentStatus)
	assert.True(t, final.NewBalance.IsZero())
	assert.True(t, final.SupplierBalance.IsZero())

	history, err := s.payments.GetPaymentHistory(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, history.IsFullyPaid)
	assert.True(t, s.f.Supplier(t, s.supplier.ID).OutstandingBalance.IsZero())
	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPurchaseService_ReturnedPurchaseCannotBeOverpaid(t *testing.T) {
	s := newServices(t)
	a := s.completedPurchase(t, "1000")
	b := s.completedPurchase(t, "500")

	_, err := s.purchases.CreateReturn(context.Background(), s.f.TenantID, a.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(400), Reason: "damaged cartons",
	}, nil)
	require.NoError(t, err)

	_, err = s.pay(a.ID, "1000")
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))

	_, err = s.pay(a.ID, "600")
	require.NoError(t, err)
	paid, err := s.pay(b.ID, "500")
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.PaymentStatus)
	assert.True(t, paid.SupplierBalance.IsZero())
	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPurchaseService_ReturnAgainstDraftIsRejected(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	created, err := s.purchases.CreatePurchase(ctx, s.f.TenantID, CreatePurchaseRequest{
		SupplierID: s.supplier.ID, TotalAmount: decimal.NewFromInt(10),
	}, nil)
	require.NoError(t, err)

	_, err = s.purchases.CreateReturn(ctx, s.f.TenantID, created.ID, CreateReturnRequest{
		Amount: decimal.NewFromInt(1), Reason: "x",
	}, nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestPurchaseService_MarkOverdue(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.completedPurchase(t, "500")
	paid := s.completedPurchase(t, "50")
	_, err := s.pay(paid.ID, "50")
	require.NoError(t, err)

	flagged, err := s.purchases.MarkOverdue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged, "nothing is due yet")

	s.f.Clock.Advance(31 * 24 * time.Hour)
	flagged, err = s.purchases.MarkOverdue(ctx, &s.f.TenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	stored, err := s.purchases.GetPurchase(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PaymentStatusOverdue), stored.PaymentStatus)

	flagged, err = s.purchases.MarkOverdue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged, "already flagged purchases are skipped")

	history, err := s.payments.GetPaymentHistory(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, history.IsOverdue)
	assert.Equal(t, "overdue", history.PaymentStatus)
}
