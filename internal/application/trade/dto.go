package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
)

// CreatePurchaseRequest represents a request to raise a purchase
type CreatePurchaseRequest struct {
	SupplierID  uuid.UUID       `json:"supplier_id" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     *time.Time      `json:"due_date"`
	Notes       string          `json:"notes" binding:"max=1000"`
}

// RecordPaymentRequest represents a payment against a purchase
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" binding:"required,oneof=cash bank_transfer upi cheque card other"`
	TransactionID string          `json:"transaction_id" binding:"max=100"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// CreateReturnRequest represents goods sent back against a purchase
type CreateReturnRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"required,min=1,max=500"`
}

// PaymentRecordResponse is one entry of a payment history
type PaymentRecordResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Amount              decimal.Decimal `json:"amount"`
	Method              string          `json:"method"`
	TransactionID       string          `json:"transaction_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	PaidAt              time.Time       `json:"paid_at"`
	ActorID             *uuid.UUID      `json:"actor_id,omitempty"`
	RunningBalance      decimal.Decimal `json:"running_balance"`
	LedgerTransactionID uuid.UUID       `json:"ledger_transaction_id"`
}

// ToPaymentRecordResponse converts a payment record
func ToPaymentRecordResponse(r trade.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:                  r.ID,
		Amount:              r.Amount,
		Method:              string(r.Method),
		TransactionID:       r.TransactionID,
		Notes:               r.Notes,
		PaidAt:              r.PaidAt,
		ActorID:             r.ActorID,
		RunningBalance:      r.RunningBalance,
		LedgerTransactionID: r.LedgerTransactionID,
	}
}

// PurchaseResponse represents a purchase
type PurchaseResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	SupplierID     uuid.UUID       `json:"supplier_id"`
	PurchaseNumber string          `json:"purchase_number"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	ReturnedAmount decimal.Decimal `json:"returned_amount"`
	PaymentStatus  string          `json:"payment_status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToPurchaseResponse converts a purchase
func ToPurchaseResponse(p *trade.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		SupplierID:     p.SupplierID,
		PurchaseNumber: p.PurchaseNumber,
		Status:         string(p.Status),
		TotalAmount:    p.TotalAmount,
		PaidAmount:     p.PaidAmount,
		BalanceAmount:  p.BalanceAmount,
		CreditAmount:   p.CreditAmount,
		ReturnedAmount: p.ReturnedAmount,
		PaymentStatus:  string(p.PaymentStatus),
		DueDate:        p.DueDate,
		CompletedAt:    p.CompletedAt,
		Notes:          p.Notes,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
	}
}

// PaymentResult is returned after a payment is recorded
type PaymentResult struct {
	PaymentAmount   decimal.Decimal       `json:"payment_amount"`
	NewBalance      decimal.Decimal       `json:"new_balance"`
	PaymentStatus   string                `json:"payment_status"`
	SupplierBalance decimal.Decimal       `json:"supplier_balance"`
	Payment         PaymentRecordResponse `json:"payment"`
}

// PaymentHistoryResponse summarises the payment sub-ledger of a purchase
type PaymentHistoryResponse struct {
	PurchaseID     uuid.UUID               `json:"purchase_id"`
	PurchaseNumber string                  `json:"purchase_number"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	PaidAmount     decimal.Decimal         `json:"paid_amount"`
	BalanceAmount  decimal.Decimal         `json:"balance_amount"`
	PaymentStatus  string                  `json:"payment_status"`
	IsFullyPaid    bool                    `json:"is_fully_paid"`
	IsOverdue      bool                    `json:"is_overdue"`
	DueDate        *time.Time              `json:"due_date,omitempty"`
	Payments       []PaymentRecordResponse `json:"payments"`
}

// PurchaseReturnResponse represents a purchase return
type PurchaseReturnResponse struct {
	ID                  uuid.UUID        `json:"id"`
	ReturnNumber        string           `json:"return_number"`
	PurchaseID          uuid.UUID        `json:"purchase_id"`
	SupplierID          uuid.UUID        `json:"supplier_id"`
	Amount              decimal.Decimal  `json:"amount"`
	Reason              string           `json:"reason"`
	LedgerTransactionID *uuid.UUID       `json:"ledger_transaction_id,omitempty"`
	SupplierBalance     *decimal.Decimal `json:"supplier_balance,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// ToPurchaseReturnResponse converts a purchase return
func ToPurchaseReturnResponse(r *trade.PurchaseReturn, supplierBalance *decimal.Decimal) PurchaseReturnResponse {
	return PurchaseReturnResponse{
		ID:                  r.ID,
		ReturnNumber:        r.ReturnNumber,
		PurchaseID:          r.PurchaseID,
		SupplierID:          r.SupplierID,
		Amount:              r.Amount,
		Reason:              r.Reason,
		LedgerTransactionID: r.LedgerTransactionID,
		SupplierBalance:     supplierBalance,
		CreatedAt:           r.CreatedAt,
	}
}
