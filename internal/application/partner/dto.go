package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
)

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Code           string           `json:"code" binding:"required,min=1,max=50"`
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	CreditLimit    *decimal.Decimal `json:"credit_limit"`
	CreditDays     int              `json:"credit_days" binding:"min=0,max=365"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

// UpdateCreditTermsRequest represents a request to change credit terms
type UpdateCreditTermsRequest struct {
	CreditLimit decimal.Decimal `json:"credit_limit"`
	CreditDays  int             `json:"credit_days" binding:"min=0,max=365"`
}

// AdjustmentRequest represents a manual balance adjustment
type AdjustmentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction" binding:"required,oneof=increase decrease"`
	Reason    string          `json:"reason" binding:"required,min=1,max=200"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// DiscountRequest represents a discount granted by the supplier
type DiscountRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason" binding:"required,min=1,max=200"`
	DocumentNumber string          `json:"document_number" binding:"max=50"`
}

// HistoryFilter narrows a transaction history query
type HistoryFilter struct {
	From     *time.Time
	To       *time.Time
	Type     string
	Page     int
	PageSize int
}

// SupplierResponse is the balance summary of a supplier
type SupplierResponse struct {
	ID                  uuid.UUID       `json:"id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	Status              string          `json:"status"`
	CreditLimit         decimal.Decimal `json:"credit_limit"`
	CreditDays          int             `json:"credit_days"`
	OutstandingBalance  decimal.Decimal `json:"outstanding_balance"`
	AvailableCredit     decimal.Decimal `json:"available_credit"`
	TotalPurchases      int             `json:"total_purchases"`
	TotalPurchaseAmount decimal.Decimal `json:"total_purchase_amount"`
	LastPurchaseDate    *time.Time      `json:"last_purchase_date,omitempty"`
	LastPaymentDate     *time.Time      `json:"last_payment_date,omitempty"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ToSupplierResponse converts a supplier to its response form
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:                  s.ID,
		TenantID:            s.TenantID,
		Code:                s.Code,
		Name:                s.Name,
		Status:              string(s.Status),
		CreditLimit:         s.CreditLimit,
		CreditDays:          s.CreditDays,
		OutstandingBalance:  s.OutstandingBalance,
		AvailableCredit:     s.AvailableCredit(),
		TotalPurchases:      s.TotalPurchases,
		TotalPurchaseAmount: s.TotalPurchaseAmount,
		LastPurchaseDate:    s.LastPurchaseDate,
		LastPaymentDate:     s.LastPaymentDate,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// LedgerTransactionResponse is the summary of one ledger entry
type LedgerTransactionResponse struct {
	ID              uuid.UUID         `json:"id"`
	SupplierID      uuid.UUID         `json:"supplier_id"`
	TransactionType string            `json:"transaction_type"`
	Amount          decimal.Decimal   `json:"amount"`
	BalanceChange   decimal.Decimal   `json:"balance_change"`
	PreviousBalance decimal.Decimal   `json:"previous_balance"`
	NewBalance      decimal.Decimal   `json:"new_balance"`
	ReferenceType   string            `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID        `json:"reference_id,omitempty"`
	DocumentNumber  string            `json:"document_number,omitempty"`
	Description     string            `json:"description,omitempty"`
	ActorID         *uuid.UUID        `json:"actor_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	TransactionDate time.Time         `json:"transaction_date"`
	BalanceVersion  int               `json:"balance_version"`
}

// ToLedgerTransactionResponse converts a ledger entry to its response form
func ToLedgerTransactionResponse(t *partner.LedgerTransaction) LedgerTransactionResponse {
	return LedgerTransactionResponse{
		ID:              t.ID,
		SupplierID:      t.SupplierID,
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		BalanceChange:   t.BalanceChange,
		PreviousBalance: t.PreviousBalance,
		NewBalance:      t.NewBalance,
		ReferenceType:   string(t.Reference.Type),
		ReferenceID:     t.Reference.ID,
		DocumentNumber:  t.Reference.DocumentNumber,
		Description:     t.Description,
		ActorID:         t.ActorID,
		Metadata:        t.Metadata,
		TransactionDate: t.TransactionDate,
		BalanceVersion:  t.BalanceVersion,
	}
}

// ToLedgerTransactionResponses converts a list of ledger entries
func ToLedgerTransactionResponses(txs []*partner.LedgerTransaction) []LedgerTransactionResponse {
	out := make([]LedgerTransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = ToLedgerTransactionResponse(t)
	}
	return out
}

// AdjustmentResponse is returned after an adjustment or discount
type AdjustmentResponse struct {
	NewBalance  decimal.Decimal           `json:"new_balance"`
	Transaction LedgerTransactionResponse `json:"transaction"`
}

// TransactionHistoryResponse is a page of ledger history with the current position
type TransactionHistoryResponse struct {
	Transactions    []LedgerTransactionResponse `json:"transactions"`
	Total           int64                       `json:"total"`
	Page            int                         `json:"page"`
	PageSize        int                         `json:"page_size"`
	CurrentBalance  decimal.Decimal             `json:"current_balance"`
	CreditLimit     decimal.Decimal             `json:"credit_limit"`
	AvailableCredit decimal.Decimal             `json:"available_credit"`
}
