package trade

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

func TestPaymentLedger_CreditThenPayments(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.completedPurchase(t, "1000")

	result, err := s.pay(p.ID, "400")
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, result.SupplierBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, result.Payment.RunningBalance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, "partial", result.PaymentStatus)

	_, err = s.pay(p.ID, "700")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))
	var violation *shared.InvariantViolationError
	require.True(t, errors.As(err, &violation))
	assert.True(t, violation.Permitted.Equal(decimal.NewFromInt(600)))

	history, err := s.payments.GetPaymentHistory(ctx, s.f.TenantID, p.ID)
	require.NoError(t, err)
	require.Len(t, history.Payments, 1)
	assert.True(t, history.BalanceAmount.Equal(decimal.NewFromInt(600)))
	assert.False(t, history.IsFullyPaid)
	assert.True(t, s.f.Supplier(t, s.supplier.ID).OutstandingBalance.Equal(decimal.NewFromInt(600)))

	final, err := s.pay(p.ID, "600")
	require.NoError(t, err)
	assert.Equal(t, "paid", final.PaymentStatus)
	assert.True(t, final.NewBalance.IsZero())

	_, err = s.pay(p.ID, "0.01")
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))
	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPaymentLedger_PaymentLinksLedgerEntry(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	p := s.completedPurchase(t, "300")

	result, err := s.payments.RecordPayment(ctx, RecordPaymentCommand{
		TenantID:       s.f.TenantID,
		PurchaseID:     p.ID,
		Amount:         decimal.NewFromInt(100),
		Method:         "upi",
		TransactionID:  "UPI-991",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	entry, err := s.f.Repos.LedgerTransactions().FindByID(ctx, s.f.TenantID, result.Payment.LedgerTransactionID)
	require.NoError(t, err)
	assert.Equal(t, partner.LedgerTransactionTypePayment, entry.TransactionType)
	assert.Equal(t, p.ID, *entry.Reference.ID)
	assert.Equal(t, "upi", entry.Metadata["method"])
	assert.Equal(t, "UPI-991", entry.Metadata["external_transaction_id"])
	assert.Equal(t, "key-1", entry.Metadata["idempotency_key"])
}

func TestPaymentLedger_RejectsBadInput(t *testing.T) {
	s := newServices(t)
	p := s.completedPurchase(t, "100")

	_, err := s.pay(p.ID, "0")
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = s.payments.RecordPayment(context.Background(), RecordPaymentCommand{
		TenantID: s.f.TenantID, PurchaseID: p.ID, Amount: decimal.NewFromInt(1), Method: "barter",
	})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	draft, err := s.purchases.CreatePurchase(context.Background(), s.f.TenantID, CreatePurchaseRequest{
		SupplierID: s.supplier.ID, TotalAmount: decimal.NewFromInt(10),
	}, nil)
	require.NoError(t, err)
	_, err = s.pay(draft.ID, "1")
	assert.True(t, errors.Is(err, shared.ErrInvalidState), "drafts carry no credit")
}

func TestPaymentLedger_ConcurrentPaymentsNeverOverdraw(t *testing.T) {
	s := newServices(t)
	p := s.completedPurchase(t, "500")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.pay(p.ID, "300")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, shared.ErrExcessPayment) || errors.Is(err, shared.ErrContention), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, s.f.Supplier(t, s.supplier.ID).OutstandingBalance.Equal(decimal.NewFromInt(200)))
	s.f.RequireConsistent(t, s.supplier.ID)
}

func TestPaymentLedger_PaymentConservation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	p := s.completedPurchase(t, "2500")

	for i := 0; i < 40; i++ {
		amount := decimal.New(int64(rng.Intn(30000)+1), -2)
		_, err := s.payments.RecordPayment(ctx, RecordPaymentCommand{
			TenantID: s.f.TenantID, PurchaseID: p.ID, Amount: amount, Method: "cash",
		})
		if err != nil {
			require.True(t, errors.Is(err, shared.ErrExcessPayment), "unexpected error: %v", err)
		}

		stored, err := s.f.Repos.Purchases().FindByIDForTenant(ctx, s.f.TenantID, p.ID)
		require.NoError(t, err)
		require.NoError(t, stored.VerifyPayments())
		sum := decimal.Zero
		for _, r := range stored.PaymentHistory {
			sum = sum.Add(r.Amount)
		}
		require.True(t, sum.Equal(stored.PaidAmount))
		require.True(t, stored.BalanceAmount.Equal(stored.TotalAmount.Sub(stored.PaidAmount)))
		require.False(t, stored.BalanceAmount.IsNegative())
	}
	s.f.RequireConsistent(t, s.supplier.ID)
}
