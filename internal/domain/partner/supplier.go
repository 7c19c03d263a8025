package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

// Supplier is the balance aggregate for one supplier of one store.
//
// OutstandingBalance is what the store owes the supplier on credit. It is
// only changed by ApplyBalanceChange (through the transaction recorder) and
// by OverrideBalance (through an audited reconciliation repair). The purchase
// totals are derived from completed purchases by RecomputeStats and are not
// part of the ledger fold.
type Supplier struct {
	shared.TenantAggregateRoot
	Code                string
	Name                string
	Status              SupplierStatus
	CreditLimit         decimal.Decimal
	CreditDays          int
	OutstandingBalance  decimal.Decimal
	TotalPurchases      int
	TotalPurchaseAmount decimal.Decimal
	LastPurchaseDate    *time.Time
	LastPaymentDate     *time.Time
}

// PurchaseStats is the result of a full rescan of a supplier's completed purchases
type PurchaseStats struct {
	Count            int
	TotalAmount      decimal.Decimal
	LastPurchaseDate *time.Time
}

// NewSupplier creates a new supplier with a zero balance
func NewSupplier(tenantID uuid.UUID, code, name string) (*Supplier, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Store ID is required")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewValidationError("Supplier code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("Supplier code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Supplier name cannot exceed 200 characters")
	}

	return &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Status:              SupplierStatusActive,
		CreditLimit:         decimal.Zero,
		OutstandingBalance:  decimal.Zero,
		TotalPurchaseAmount: decimal.Zero,
	}, nil
}

// SetCreditTerms sets the credit limit and payment term in days
func (s *Supplier) SetCreditTerms(limit decimal.Decimal, days int) error {
	if limit.IsNegative() {
		return shared.NewValidationError("Credit limit cannot be negative")
	}
	if days < 0 || days > 365 {
		return shared.NewValidationError("Credit days must be between 0 and 365")
	}
	s.CreditLimit = limit
	s.CreditDays = days
	s.Touch(time.Now().UTC())
	s.IncrementVersion()
	return nil
}

// AvailableCredit returns CreditLimit minus OutstandingBalance. It is not
// clamped, so a supplier over its limit reports a negative value.
func (s *Supplier) AvailableCredit() decimal.Decimal {
	return s.CreditLimit.Sub(s.OutstandingBalance)
}

// IsActive reports whether the supplier accepts new purchases
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// Deactivate stops new purchases from being raised against the supplier
func (s *Supplier) Deactivate() {
	s.Status = SupplierStatusInactive
	s.Touch(time.Now().UTC())
	s.IncrementVersion()
}

// ApplyBalanceChange moves the outstanding balance by change and bumps the
// version. It returns the balance before the change. Nothing is modified
// when the result would be negative.
func (s *Supplier) ApplyBalanceChange(txType LedgerTransactionType, change decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	previous := s.OutstandingBalance
	next := previous.Add(change)
	if next.IsNegative() {
		return previous, shared.NewInvalidBalanceError(previous, change)
	}

	s.OutstandingBalance = next
	switch txType {
	case LedgerTransactionTypePayment:
		s.LastPaymentDate = &at
	case LedgerTransactionTypeCreditGrant:
		s.LastPurchaseDate = &at
	}
	s.Touch(at)
	s.IncrementVersion()
	return previous, nil
}

// OverrideBalance replaces the stored balance with a value recomputed from
// the ledger. Used only by reconciliation repair.
func (s *Supplier) OverrideBalance(calculated decimal.Decimal, at time.Time) error {
	if calculated.IsNegative() {
		return shared.NewInvalidBalanceError(s.OutstandingBalance, calculated.Sub(s.OutstandingBalance))
	}
	s.OutstandingBalance = calculated
	s.Touch(at)
	s.IncrementVersion()
	return nil
}

// ApplyStats overwrites the purchase totals with a fresh rescan
func (s *Supplier) ApplyStats(stats PurchaseStats) {
	s.TotalPurchases = stats.Count
	s.TotalPurchaseAmount = stats.TotalAmount
	if stats.LastPurchaseDate != nil {
		s.LastPurchaseDate = stats.LastPurchaseDate
	}
}
