package partner

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

func newTestSupplier(t *testing.T) *Supplier {
	t.Helper()
	s, err := NewSupplier(uuid.New(), "sup-001", "Medico Distributors")
	require.NoError(t, err)
	return s
}

func TestNewSupplier(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates supplier with zero balance", func(t *testing.T) {
		s, err := NewSupplier(tenantID, " sup-001 ", "Medico Distributors")
		require.NoError(t, err)
		assert.Equal(t, "SUP-001", s.Code)
		assert.Equal(t, tenantID, s.TenantID)
		assert.True(t, s.OutstandingBalance.IsZero())
		assert.Equal(t, 1, s.Version)
		assert.True(t, s.IsActive())
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewSupplier(tenantID, "  ", "Name")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewSupplier(tenantID, "S1", "")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects nil store", func(t *testing.T) {
		_, err := NewSupplier(uuid.Nil, "S1", "Name")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestSupplier_ApplyBalanceChange(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	t.Run("credit grant raises balance and sets last purchase date", func(t *testing.T) {
		s := newTestSupplier(t)
		prev, err := s.ApplyBalanceChange(LedgerTransactionTypeCreditGrant, decimal.NewFromInt(1000), at)
		require.NoError(t, err)
		assert.True(t, prev.IsZero())
		assert.True(t, s.OutstandingBalance.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, 2, s.Version)
		require.NotNil(t, s.LastPurchaseDate)
		assert.Equal(t, at, *s.LastPurchaseDate)
		assert.Nil(t, s.LastPaymentDate)
	})

	t.Run("payment lowers balance and sets last payment date", func(t *testing.T) {
		s := newTestSupplier(t)
		s.OutstandingBalance = decimal.NewFromInt(1000)
		prev, err := s.ApplyBalanceChange(LedgerTransactionTypePayment, decimal.NewFromInt(-400), at)
		require.NoError(t, err)
		assert.True(t, prev.Equal(decimal.NewFromInt(1000)))
		assert.True(t, s.OutstandingBalance.Equal(decimal.NewFromInt(600)))
		require.NotNil(t, s.LastPaymentDate)
	})

	t.Run("negative result leaves supplier untouched", func(t *testing.T) {
		s := newTestSupplier(t)
		s.OutstandingBalance = decimal.NewFromInt(100)
		_, err := s.ApplyBalanceChange(LedgerTransactionTypeReturn, decimal.NewFromInt(-101), at)

		var inv *shared.InvariantViolationError
		require.True(t, errors.As(err, &inv))
		assert.Equal(t, shared.CodeInvalidBalance, inv.Code)
		assert.True(t, s.OutstandingBalance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 1, s.Version)
	})
}

func TestSupplier_AvailableCreditIsUnclamped(t *testing.T) {
	s := newTestSupplier(t)
	require.NoError(t, s.SetCreditTerms(decimal.NewFromInt(500), 30))
	s.OutstandingBalance = decimal.NewFromInt(800)
	assert.True(t, s.AvailableCredit().Equal(decimal.NewFromInt(-300)))
}

func TestSupplier_SetCreditTerms(t *testing.T) {
	s := newTestSupplier(t)
	assert.Error(t, s.SetCreditTerms(decimal.NewFromInt(-1), 30))
	assert.Error(t, s.SetCreditTerms(decimal.NewFromInt(10), 400))
	require.NoError(t, s.SetCreditTerms(decimal.NewFromInt(10), 45))
	assert.Equal(t, 45, s.CreditDays)
	assert.Equal(t, 2, s.Version)
}

func TestSupplier_OverrideBalance(t *testing.T) {
	s := newTestSupplier(t)
	s.OutstandingBalance = decimal.NewFromInt(900)
	require.NoError(t, s.OverrideBalance(decimal.NewFromInt(600), time.Now()))
	assert.True(t, s.OutstandingBalance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 2, s.Version)

	assert.Error(t, s.OverrideBalance(decimal.NewFromInt(-1), time.Now()))
}

func TestSupplier_ApplyStats(t *testing.T) {
	s := newTestSupplier(t)
	last := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	s.ApplyStats(PurchaseStats{Count: 3, TotalAmount: decimal.NewFromInt(4500), LastPurchaseDate: &last})
	assert.Equal(t, 3, s.TotalPurchases)
	assert.True(t, s.TotalPurchaseAmount.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, last, *s.LastPurchaseDate)
	assert.Equal(t, 1, s.Version)
}
