package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// PurchaseStatus represents the lifecycle state of a purchase
type PurchaseStatus string

const (
	PurchaseStatusDraft     PurchaseStatus = "draft"
	PurchaseStatusOrdered   PurchaseStatus = "ordered"
	PurchaseStatusReceived  PurchaseStatus = "received"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// IsTerminal returns true if no further transitions are allowed
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusCancelled
}

// PaymentStatus summarises how much of a purchase has been paid
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// PaymentMethod is how a supplier payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid returns true if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodUPI,
		PaymentMethodCheque, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentRecord is one entry of a purchase's payment history.
// RunningBalance is the purchase balance right after this payment.
type PaymentRecord struct {
	ID                  uuid.UUID       `json:"id"`
	Amount              decimal.Decimal `json:"amount"`
	Method              PaymentMethod   `json:"method"`
	TransactionID       string          `json:"transaction_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	PaidAt              time.Time       `json:"paid_at"`
	ActorID             *uuid.UUID      `json:"actor_id,omitempty"`
	RunningBalance      decimal.Decimal `json:"running_balance"`
	LedgerTransactionID uuid.UUID       `json:"ledger_transaction_id"`
	IdempotencyKey      string          `json:"idempotency_key,omitempty"`
}

// PaymentDetails carries the caller-supplied part of a payment
type PaymentDetails struct {
	Amount         decimal.Decimal
	Method         PaymentMethod
	TransactionID  string
	Notes          string
	ActorID        *uuid.UUID
	IdempotencyKey string
}

// Purchase is a purchase order together with its payment sub-ledger.
// BalanceAmount always equals TotalAmount - PaidAmount - ReturnedAmount and
// PaidAmount always equals the sum of PaymentHistory amounts.
type Purchase struct {
	shared.TenantAggregateRoot
	SupplierID     uuid.UUID
	PurchaseNumber string
	Status         PurchaseStatus
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	BalanceAmount  decimal.Decimal
	CreditAmount   decimal.Decimal
	ReturnedAmount decimal.Decimal
	PaymentStatus  PaymentStatus
	DueDate        *time.Time
	CompletedAt    *time.Time
	Notes          string
	PaymentHistory []PaymentRecord
}

// NewPurchase creates a draft purchase
func NewPurchase(tenantID, supplierID uuid.UUID, number string, total decimal.Decimal, dueDate *time.Time, notes string) (*Purchase, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Store ID is required")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("Supplier ID is required")
	}
	if number == "" {
		return nil, shared.NewValidationError("Purchase number is required")
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("Total amount must be positive")
	}
	if len(notes) > 1000 {
		return nil, shared.NewValidationError("Notes cannot exceed 1000 characters")
	}

	return &Purchase{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SupplierID:          supplierID,
		PurchaseNumber:      number,
		Status:              PurchaseStatusDraft,
		TotalAmount:         total,
		PaidAmount:          decimal.Zero,
		BalanceAmount:       total,
		CreditAmount:        decimal.Zero,
		ReturnedAmount:      decimal.Zero,
		PaymentStatus:       PaymentStatusPending,
		DueDate:             dueDate,
		Notes:               notes,
		PaymentHistory:      make([]PaymentRecord, 0),
	}, nil
}

func (p *Purchase) transition(to PurchaseStatus, allowed ...PurchaseStatus) error {
	for _, from := range allowed {
		if p.Status == from {
			p.Status = to
			p.Touch(time.Now().UTC())
			p.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeInvalidState,
		fmt.Sprintf("Cannot move purchase from %s to %s", p.Status, to))
}

// MarkOrdered sends the purchase to the supplier
func (p *Purchase) MarkOrdered() error {
	return p.transition(PurchaseStatusOrdered, PurchaseStatusDraft)
}

// MarkReceived records receipt of the goods
func (p *Purchase) MarkReceived() error {
	return p.transition(PurchaseStatusReceived, PurchaseStatusOrdered)
}

// Cancel cancels a purchase that has not been completed
func (p *Purchase) Cancel() error {
	if len(p.PaymentHistory) > 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot cancel a purchase with payments")
	}
	return p.transition(PurchaseStatusCancelled, PurchaseStatusDraft, PurchaseStatusOrdered, PurchaseStatusReceived)
}

// Complete moves the purchase into the credit-bearing state and returns the
// amount of credit the supplier extends, which is the unpaid balance.
func (p *Purchase) Complete(at time.Time) (decimal.Decimal, error) {
	if err := p.transition(PurchaseStatusCompleted, PurchaseStatusDraft, PurchaseStatusOrdered, PurchaseStatusReceived); err != nil {
		return decimal.Zero, err
	}
	p.CompletedAt = &at
	p.CreditAmount = p.BalanceAmount
	p.RefreshPaymentStatus(at)
	return p.CreditAmount, nil
}

// CanAcceptPayment checks a payment amount before anything is written
func (p *Purchase) CanAcceptPayment(amount decimal.Decimal) error {
	if p.Status != PurchaseStatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot record payment for purchase in %s status", p.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if amount.GreaterThan(p.BalanceAmount) {
		return shared.NewExcessPaymentError(amount, p.BalanceAmount)
	}
	return nil
}

// ApplyPayment appends a payment record and updates the paid and balance
// amounts. ledgerTxID links the record to the ledger entry it produced.
func (p *Purchase) ApplyPayment(details PaymentDetails, ledgerTxID uuid.UUID, at time.Time) (*PaymentRecord, error) {
	if err := p.CanAcceptPayment(details.Amount); err != nil {
		return nil, err
	}
	if !details.Method.IsValid() {
		return nil, shared.NewValidationError("Invalid payment method: " + string(details.Method))
	}
	if ledgerTxID == uuid.Nil {
		return nil, shared.NewValidationError("Ledger transaction ID is required")
	}

	record := PaymentRecord{
		ID:                  uuid.New(),
		Amount:              details.Amount,
		Method:              details.Method,
		TransactionID:       details.TransactionID,
		Notes:               details.Notes,
		PaidAt:              at,
		ActorID:             details.ActorID,
		RunningBalance:      p.BalanceAmount.Sub(details.Amount),
		LedgerTransactionID: ledgerTxID,
		IdempotencyKey:      details.IdempotencyKey,
	}
	p.PaymentHistory = append(p.PaymentHistory, record)
	p.PaidAmount = p.PaidAmount.Add(details.Amount)
	p.BalanceAmount = p.payable()
	p.RefreshPaymentStatus(at)
	p.Touch(at)
	p.IncrementVersion()

	return &record, nil
}

// RefreshPaymentStatus recomputes PaymentStatus for the given time and
// reports whether it changed.
func (p *Purchase) RefreshPaymentStatus(now time.Time) bool {
	next := PaymentStatusPending
	switch {
	case p.BalanceAmount.IsZero():
		next = PaymentStatusPaid
	case p.IsOverdue(now):
		next = PaymentStatusOverdue
	case p.PaidAmount.IsPositive():
		next = PaymentStatusPartial
	}
	changed := next != p.PaymentStatus
	p.PaymentStatus = next
	return changed
}

// IsFullyPaid returns true when nothing is owed
func (p *Purchase) IsFullyPaid() bool {
	return p.BalanceAmount.IsZero()
}

// IsOverdue returns true when the due date has passed with a balance left
func (p *Purchase) IsOverdue(now time.Time) bool {
	return p.DueDate != nil && now.After(*p.DueDate) && p.BalanceAmount.IsPositive()
}

func (p *Purchase) payable() decimal.Decimal {
	return p.TotalAmount.Sub(p.PaidAmount).Sub(p.ReturnedAmount)
}

// ReturnableAmount is how much of the purchase can still be returned. A
// return settles part of the open balance, so goods already paid for are
// refunded through an adjustment instead.
func (p *Purchase) ReturnableAmount() decimal.Decimal {
	return p.BalanceAmount
}

// RecordReturn accounts for goods sent back to the supplier and reduces
// what is still payable on the purchase.
func (p *Purchase) RecordReturn(amount decimal.Decimal) error {
	if p.Status != PurchaseStatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState, "Only completed purchases can be returned")
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Return amount must be positive")
	}
	if amount.GreaterThan(p.ReturnableAmount()) {
		return &shared.InvariantViolationError{
			DomainError: shared.NewValidationError(fmt.Sprintf(
				"return amount %s exceeds returnable amount of %s",
				amount.StringFixed(2), p.ReturnableAmount().StringFixed(2))),
			Attempted: amount,
			Permitted: p.ReturnableAmount(),
		}
	}
	now := time.Now().UTC()
	p.ReturnedAmount = p.ReturnedAmount.Add(amount)
	p.BalanceAmount = p.payable()
	p.RefreshPaymentStatus(now)
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// VerifyPayments checks the payment conservation invariants
func (p *Purchase) VerifyPayments() error {
	sum := decimal.Zero
	previous := p.TotalAmount
	for i, r := range p.PaymentHistory {
		sum = sum.Add(r.Amount)
		if r.RunningBalance.IsNegative() || r.RunningBalance.GreaterThan(previous) {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("payment %d has inconsistent running balance %s", i+1, r.RunningBalance))
		}
		previous = r.RunningBalance
	}
	if !sum.Equal(p.PaidAmount) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("paid amount %s does not match payment history total %s", p.PaidAmount, sum))
	}
	if p.ReturnedAmount.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidState, "returned amount cannot be negative")
	}
	if !p.BalanceAmount.Equal(p.payable()) {
		return shared.NewDomainError(shared.CodeInvalidState, "balance amount does not equal total minus paid and returned")
	}
	if p.BalanceAmount.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidState, "balance amount cannot be negative")
	}
	return nil
}
