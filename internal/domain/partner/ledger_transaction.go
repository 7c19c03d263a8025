package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// LedgerTransactionType represents the business event behind a ledger entry
type LedgerTransactionType string

const (
	// LedgerTransactionTypeCreditGrant is goods received on credit (balance increase)
	LedgerTransactionTypeCreditGrant LedgerTransactionType = "credit_grant"
	// LedgerTransactionTypePayment is money paid to the supplier (balance decrease)
	LedgerTransactionTypePayment LedgerTransactionType = "payment"
	// LedgerTransactionTypeAdjustment is a manual correction in either direction
	LedgerTransactionTypeAdjustment LedgerTransactionType = "adjustment"
	// LedgerTransactionTypeReturn is goods returned to the supplier (balance decrease)
	LedgerTransactionTypeReturn LedgerTransactionType = "return"
	// LedgerTransactionTypeDiscount is a discount granted by the supplier (balance decrease)
	LedgerTransactionTypeDiscount LedgerTransactionType = "discount"
)

// String returns the string representation of LedgerTransactionType
func (t LedgerTransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t LedgerTransactionType) IsValid() bool {
	switch t {
	case LedgerTransactionTypeCreditGrant,
		LedgerTransactionTypePayment,
		LedgerTransactionTypeAdjustment,
		LedgerTransactionTypeReturn,
		LedgerTransactionTypeDiscount:
		return true
	}
	return false
}

// AdjustmentDirection selects the sign of an adjustment
type AdjustmentDirection string

const (
	AdjustmentIncrease AdjustmentDirection = "increase"
	AdjustmentDecrease AdjustmentDirection = "decrease"
)

// IsValid returns true if the direction is valid
func (d AdjustmentDirection) IsValid() bool {
	return d == AdjustmentIncrease || d == AdjustmentDecrease
}

// SignedChange returns the balance change for a transaction of the given
// type and amount. Direction is consulted only for adjustments.
func SignedChange(txType LedgerTransactionType, amount decimal.Decimal, direction AdjustmentDirection) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, shared.NewValidationError("Amount must be positive")
	}
	switch txType {
	case LedgerTransactionTypeCreditGrant:
		return amount, nil
	case LedgerTransactionTypePayment, LedgerTransactionTypeReturn, LedgerTransactionTypeDiscount:
		return amount.Neg(), nil
	case LedgerTransactionTypeAdjustment:
		switch direction {
		case AdjustmentIncrease:
			return amount, nil
		case AdjustmentDecrease:
			return amount.Neg(), nil
		}
		return decimal.Zero, shared.NewValidationError("Adjustment direction must be increase or decrease")
	}
	return decimal.Zero, shared.NewValidationError("Invalid ledger transaction type: " + string(txType))
}

// ReferenceType identifies the kind of business object behind a ledger entry
type ReferenceType string

const (
	ReferenceTypePurchase         ReferenceType = "purchase"
	ReferenceTypePurchaseReturn   ReferenceType = "purchase_return"
	ReferenceTypeManualAdjustment ReferenceType = "manual_adjustment"
	ReferenceTypeSupplierDiscount ReferenceType = "supplier_discount"
	ReferenceTypeOpeningBalance   ReferenceType = "opening_balance"
)

// LedgerReference points at the business object that caused a ledger entry
type LedgerReference struct {
	Type           ReferenceType
	ID             *uuid.UUID
	DocumentNumber string
}

// LedgerTransaction is one immutable balance-affecting event.
// BalanceVersion is the supplier version produced by this entry; entries of
// one supplier form a chain ordered by it.
type LedgerTransaction struct {
	shared.BaseEntity
	TenantID        uuid.UUID
	SupplierID      uuid.UUID
	TransactionType LedgerTransactionType
	Amount          decimal.Decimal
	BalanceChange   decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Reference       LedgerReference
	Description     string
	ActorID         *uuid.UUID
	Metadata        map[string]string
	TransactionDate time.Time
	BalanceVersion  int
}

// LedgerEntryParams carries the values needed to build a LedgerTransaction
type LedgerEntryParams struct {
	TenantID        uuid.UUID
	SupplierID      uuid.UUID
	Type            LedgerTransactionType
	Amount          decimal.Decimal
	BalanceChange   decimal.Decimal
	PreviousBalance decimal.Decimal
	Reference       LedgerReference
	Description     string
	ActorID         *uuid.UUID
	Metadata        map[string]string
	TransactionDate time.Time
	BalanceVersion  int
}

// NewLedgerTransaction builds an entry and checks its invariants
func NewLedgerTransaction(p LedgerEntryParams) (*LedgerTransaction, error) {
	if p.TenantID == uuid.Nil || p.SupplierID == uuid.Nil {
		return nil, shared.NewValidationError("Store and supplier are required")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewValidationError("Invalid ledger transaction type: " + string(p.Type))
	}
	if len(p.Description) > 500 {
		return nil, shared.NewValidationError("Description cannot exceed 500 characters")
	}
	if p.TransactionDate.IsZero() {
		p.TransactionDate = time.Now().UTC()
	}

	tx := &LedgerTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        p.TenantID,
		SupplierID:      p.SupplierID,
		TransactionType: p.Type,
		Amount:          p.Amount,
		BalanceChange:   p.BalanceChange,
		PreviousBalance: p.PreviousBalance,
		NewBalance:      p.PreviousBalance.Add(p.BalanceChange),
		Reference:       p.Reference,
		Description:     p.Description,
		ActorID:         p.ActorID,
		Metadata:        p.Metadata,
		TransactionDate: p.TransactionDate,
		BalanceVersion:  p.BalanceVersion,
	}
	if err := tx.Verify(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Verify checks the per-entry invariants
func (t *LedgerTransaction) Verify() error {
	if !t.Amount.IsPositive() {
		return shared.NewValidationError("Amount must be positive")
	}
	if !t.BalanceChange.Abs().Equal(t.Amount) {
		return shared.NewValidationError("Balance change must match amount")
	}
	if !t.NewBalance.Equal(t.PreviousBalance.Add(t.BalanceChange)) {
		return shared.NewValidationError("New balance must equal previous balance plus change")
	}
	if t.NewBalance.IsNegative() {
		return shared.NewInvalidBalanceError(t.PreviousBalance, t.BalanceChange)
	}
	return nil
}

// IsIncrease reports whether the entry raised the balance
func (t *LedgerTransaction) IsIncrease() bool {
	return t.BalanceChange.IsPositive()
}
