package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// PurchaseReturn records goods sent back to a supplier against a purchase
type PurchaseReturn struct {
	shared.TenantAggregateRoot
	ReturnNumber        string
	PurchaseID          uuid.UUID
	SupplierID          uuid.UUID
	Amount              decimal.Decimal
	Reason              string
	LedgerTransactionID *uuid.UUID
}

// NewPurchaseReturn creates a return for a purchase
func NewPurchaseReturn(purchase *Purchase, number string, amount decimal.Decimal, reason string, actorID *uuid.UUID) (*PurchaseReturn, error) {
	if number == "" {
		return nil, shared.NewValidationError("Return number is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Return amount must be positive")
	}
	if len(reason) > 500 {
		return nil, shared.NewValidationError("Reason cannot exceed 500 characters")
	}
	r := &PurchaseReturn{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(purchase.TenantID),
		ReturnNumber:        number,
		PurchaseID:          purchase.ID,
		SupplierID:          purchase.SupplierID,
		Amount:              amount,
		Reason:              reason,
	}
	r.SetCreatedBy(actorID)
	return r, nil
}

// LinkLedgerTransaction records the ledger entry produced by the return
func (r *PurchaseReturn) LinkLedgerTransaction(id uuid.UUID) {
	r.LedgerTransactionID = &id
}
