package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

func completedPurchase(t *testing.T, total int64, due *time.Time) *Purchase {
	t.Helper()
	p, err := NewPurchase(uuid.New(), uuid.New(), "PO-202403-0001", decimal.NewFromInt(total), due, "")
	require.NoError(t, err)
	credit, err := p.Complete(time.Now().UTC())
	require.NoError(t, err)
	require.True(t, credit.Equal(decimal.NewFromInt(total)))
	return p
}

func pay(amount int64) PaymentDetails {
	return PaymentDetails{Amount: decimal.NewFromInt(amount), Method: PaymentMethodCash}
}

func TestNewPurchase(t *testing.T) {
	p, err := NewPurchase(uuid.New(), uuid.New(), "PO-202403-0001", decimal.NewFromInt(1000), nil, "first order")
	require.NoError(t, err)
	assert.Equal(t, PurchaseStatusDraft, p.Status)
	assert.Equal(t, PaymentStatusPending, p.PaymentStatus)
	assert.True(t, p.BalanceAmount.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, p.VerifyPayments())

	_, err = NewPurchase(uuid.New(), uuid.New(), "PO-1", decimal.Zero, nil, "")
	assert.True(t, errors.Is(err, shared.ErrValidation))
	_, err = NewPurchase(uuid.New(), uuid.Nil, "PO-1", decimal.NewFromInt(1), nil, "")
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestPurchase_Lifecycle(t *testing.T) {
	p, err := NewPurchase(uuid.New(), uuid.New(), "PO-202403-0002", decimal.NewFromInt(500), nil, "")
	require.NoError(t, err)

	require.NoError(t, p.MarkOrdered())
	assert.Error(t, p.MarkOrdered())
	require.NoError(t, p.MarkReceived())
	_, err = p.Complete(time.Now())
	require.NoError(t, err)
	assert.True(t, p.CreditAmount.Equal(decimal.NewFromInt(500)))
	assert.NotNil(t, p.CompletedAt)

	err = p.Cancel()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestPurchase_ApplyPayment(t *testing.T) {
	p := completedPurchase(t, 1000, nil)
	ledgerID := uuid.New()

	record, err := p.ApplyPayment(pay(400), ledgerID, time.Now())
	require.NoError(t, err)
	assert.True(t, record.RunningBalance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, ledgerID, record.LedgerTransactionID)
	assert.Equal(t, PaymentStatusPartial, p.PaymentStatus)
	assert.True(t, p.PaidAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, p.BalanceAmount.Equal(decimal.NewFromInt(600)))

	t.Run("excess payment is rejected without changes", func(t *testing.T) {
		version := p.Version
		_, err := p.ApplyPayment(pay(700), uuid.New(), time.Now())

		var inv *shared.InvariantViolationError
		require.True(t, errors.As(err, &inv))
		assert.Equal(t, shared.CodeExcessPayment, inv.Code)
		assert.True(t, inv.Attempted.Equal(decimal.NewFromInt(700)))
		assert.True(t, inv.Permitted.Equal(decimal.NewFromInt(600)))
		assert.Len(t, p.PaymentHistory, 1)
		assert.Equal(t, version, p.Version)
	})

	t.Run("paying the rest marks it paid", func(t *testing.T) {
		record, err := p.ApplyPayment(pay(600), uuid.New(), time.Now())
		require.NoError(t, err)
		assert.True(t, record.RunningBalance.IsZero())
		assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
		assert.True(t, p.IsFullyPaid())
		assert.NoError(t, p.VerifyPayments())
	})

	t.Run("nothing more can be paid", func(t *testing.T) {
		_, err := p.ApplyPayment(pay(1), uuid.New(), time.Now())
		assert.True(t, errors.Is(err, shared.ErrExcessPayment))
	})
}

func TestPurchase_ApplyPaymentValidation(t *testing.T) {
	p := completedPurchase(t, 100, nil)

	_, err := p.ApplyPayment(pay(0), uuid.New(), time.Now())
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = p.ApplyPayment(PaymentDetails{Amount: decimal.NewFromInt(10), Method: "barter"}, uuid.New(), time.Now())
	assert.True(t, errors.Is(err, shared.ErrValidation))

	draft, err := NewPurchase(uuid.New(), uuid.New(), "PO-1", decimal.NewFromInt(10), nil, "")
	require.NoError(t, err)
	_, err = draft.ApplyPayment(pay(5), uuid.New(), time.Now())
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestPurchase_PaymentStatus(t *testing.T) {
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	p := completedPurchase(t, 1000, &due)

	before := due.Add(-24 * time.Hour)
	after := due.Add(24 * time.Hour)

	p.RefreshPaymentStatus(before)
	assert.Equal(t, PaymentStatusPending, p.PaymentStatus)
	assert.True(t, p.RefreshPaymentStatus(after))
	assert.Equal(t, PaymentStatusOverdue, p.PaymentStatus)
	assert.True(t, p.IsOverdue(after))

	_, err := p.ApplyPayment(pay(300), uuid.New(), before)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPartial, p.PaymentStatus)

	_, err = p.ApplyPayment(pay(700), uuid.New(), after)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
	assert.False(t, p.IsOverdue(after))
}

func TestPurchase_VerifyPaymentsDetectsTampering(t *testing.T) {
	p := completedPurchase(t, 1000, nil)
	_, err := p.ApplyPayment(pay(400), uuid.New(), time.Now())
	require.NoError(t, err)

	p.PaidAmount = decimal.NewFromInt(500)
	assert.Error(t, p.VerifyPayments())
}

func TestPurchase_RecordReturn(t *testing.T) {
	p := completedPurchase(t, 1000, nil)
	require.NoError(t, p.RecordReturn(decimal.NewFromInt(300)))
	assert.True(t, p.ReturnableAmount().Equal(decimal.NewFromInt(700)))

	err := p.RecordReturn(decimal.NewFromInt(701))
	var inv *shared.InvariantViolationError
	require.True(t, errors.As(err, &inv))
	assert.True(t, inv.Permitted.Equal(decimal.NewFromInt(700)))

	assert.True(t, p.BalanceAmount.Equal(decimal.NewFromInt(700)))
	assert.NoError(t, p.VerifyPayments())

	ret, err := NewPurchaseReturn(p, "PR-202403-0001", decimal.NewFromInt(300), "damaged strips", nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, ret.PurchaseID)
	assert.Equal(t, p.SupplierID, ret.SupplierID)
	assert.Equal(t, p.TenantID, ret.TenantID)
}

func TestPurchase_ReturnThenPaySettles(t *testing.T) {
	p := completedPurchase(t, 1000, nil)
	require.NoError(t, p.RecordReturn(decimal.NewFromInt(400)))

	_, err := p.ApplyPayment(pay(601), uuid.New(), time.Now())
	assert.True(t, errors.Is(err, shared.ErrExcessPayment))

	rec, err := p.ApplyPayment(pay(250), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, rec.RunningBalance.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, PaymentStatusPartial, p.PaymentStatus)

	_, err = p.ApplyPayment(pay(350), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, p.IsFullyPaid())
	assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
	assert.NoError(t, p.VerifyPayments())
}

func TestPurchase_ReturnLimitedToOpenBalance(t *testing.T) {
	p := completedPurchase(t, 1000, nil)
	_, err := p.ApplyPayment(pay(800), uuid.New(), time.Now())
	require.NoError(t, err)

	err = p.RecordReturn(decimal.NewFromInt(201))
	var inv *shared.InvariantViolationError
	require.True(t, errors.As(err, &inv))
	assert.True(t, inv.Permitted.Equal(decimal.NewFromInt(200)))

	require.NoError(t, p.RecordReturn(decimal.NewFromInt(200)))
	assert.True(t, p.IsFullyPaid())
	assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
	assert.NoError(t, p.VerifyPayments())

	p.ReturnedAmount = decimal.NewFromInt(100)
	assert.Error(t, p.VerifyPayments())
}
