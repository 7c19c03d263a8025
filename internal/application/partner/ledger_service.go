package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// SupplierLedgerService exposes supplier balances and the manual ledger
// operations (adjustments, discounts) to the API layer.
type SupplierLedgerService struct {
	scope     unitofwork.TransactionScope
	suppliers partner.SupplierRepository
	ledger    partner.LedgerTransactionRepository
	recorder  *TransactionRecorder
}

// NewSupplierLedgerService creates a new SupplierLedgerService
func NewSupplierLedgerService(
	scope unitofwork.TransactionScope,
	suppliers partner.SupplierRepository,
	ledger partner.LedgerTransactionRepository,
	recorder *TransactionRecorder,
) *SupplierLedgerService {
	return &SupplierLedgerService{
		scope:     scope,
		suppliers: suppliers,
		ledger:    ledger,
		recorder:  recorder,
	}
}

// CreateSupplier creates a supplier. A non-zero opening balance is booked
// as a credit grant in the same transaction so the ledger fold holds from
// the first row.
func (s *SupplierLedgerService) CreateSupplier(ctx context.Context, tenantID uuid.UUID, req CreateSupplierRequest, actorID *uuid.UUID) (*SupplierResponse, error) {
	supplier, err := partner.NewSupplier(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	supplier.SetCreatedBy(actorID)
	if req.CreditLimit != nil || req.CreditDays != 0 {
		limit := decimal.Zero
		if req.CreditLimit != nil {
			limit = *req.CreditLimit
		}
		if err := supplier.SetCreditTerms(limit, req.CreditDays); err != nil {
			return nil, err
		}
	}
	if req.OpeningBalance != nil && req.OpeningBalance.IsNegative() {
		return nil, shared.NewValidationError("Opening balance cannot be negative")
	}

	var opening *partner.LedgerTransaction
	err = s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		exists, err := repos.Suppliers().ExistsByCode(ctx, tenantID, supplier.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Supplier code already exists: "+supplier.Code)
		}
		if err := repos.Suppliers().Create(ctx, supplier); err != nil {
			return err
		}
		if req.OpeningBalance == nil || req.OpeningBalance.IsZero() {
			return nil
		}
		opening, err = s.recorder.RecordWithin(ctx, repos, RecordCommand{
			TenantID:    tenantID,
			SupplierID:  supplier.ID,
			Type:        partner.LedgerTransactionTypeCreditGrant,
			Amount:      *req.OpeningBalance,
			Reference:   partner.LedgerReference{Type: partner.ReferenceTypeOpeningBalance},
			Description: "Opening balance",
			ActorID:     actorID,
		})
		if err != nil {
			return err
		}
		// RecordWithin saved a newer copy of the supplier
		supplier, err = repos.Suppliers().FindByIDForTenant(ctx, tenantID, supplier.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Committed(ctx, opening)

	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// GetSupplier returns the balance summary of a supplier
func (s *SupplierLedgerService) GetSupplier(ctx context.Context, tenantID, supplierID uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.suppliers.FindByIDForTenant(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// UpdateCreditTerms changes the credit limit and payment term
func (s *SupplierLedgerService) UpdateCreditTerms(ctx context.Context, tenantID, supplierID uuid.UUID, req UpdateCreditTermsRequest) (*SupplierResponse, error) {
	var updated *partner.Supplier
	err := s.recorder.RetryPolicy("update_credit_terms").Run(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			supplier, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, supplierID)
			if err != nil {
				return err
			}
			expected := supplier.Version
			if err := supplier.SetCreditTerms(req.CreditLimit, req.CreditDays); err != nil {
				return err
			}
			if err := repos.Suppliers().SaveWithLock(ctx, supplier, expected); err != nil {
				return err
			}
			updated = supplier
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(updated)
	return &resp, nil
}

// RecordAdjustment books a manual correction. A decrease that would take
// the balance below zero is rejected.
func (s *SupplierLedgerService) RecordAdjustment(ctx context.Context, tenantID, supplierID uuid.UUID, req AdjustmentRequest, actorID *uuid.UUID) (*AdjustmentResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("Adjustment reason is required")
	}
	description := reason
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		description = reason + ": " + notes
	}

	tx, err := s.recorder.Record(ctx, RecordCommand{
		TenantID:    tenantID,
		SupplierID:  supplierID,
		Type:        partner.LedgerTransactionTypeAdjustment,
		Amount:      req.Amount,
		Direction:   partner.AdjustmentDirection(req.Direction),
		Reference:   partner.LedgerReference{Type: partner.ReferenceTypeManualAdjustment},
		Description: description,
		ActorID:     actorID,
		Metadata:    map[string]string{"direction": req.Direction, "reason": reason},
	})
	if err != nil {
		return nil, err
	}
	return &AdjustmentResponse{NewBalance: tx.NewBalance, Transaction: ToLedgerTransactionResponse(tx)}, nil
}

// RecordDiscount books a discount granted by the supplier
func (s *SupplierLedgerService) RecordDiscount(ctx context.Context, tenantID, supplierID uuid.UUID, req DiscountRequest, actorID *uuid.UUID) (*AdjustmentResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("Discount reason is required")
	}
	tx, err := s.recorder.Record(ctx, RecordCommand{
		TenantID:   tenantID,
		SupplierID: supplierID,
		Type:       partner.LedgerTransactionTypeDiscount,
		Amount:     req.Amount,
		Reference: partner.LedgerReference{
			Type:           partner.ReferenceTypeSupplierDiscount,
			DocumentNumber: req.DocumentNumber,
		},
		Description: reason,
		ActorID:     actorID,
	})
	if err != nil {
		return nil, err
	}
	return &AdjustmentResponse{NewBalance: tx.NewBalance, Transaction: ToLedgerTransactionResponse(tx)}, nil
}

// GetTransactionHistory returns a page of the supplier's ledger, newest
// first, together with its current balance and available credit.
func (s *SupplierLedgerService) GetTransactionHistory(ctx context.Context, tenantID, supplierID uuid.UUID, filter HistoryFilter) (*TransactionHistoryResponse, error) {
	supplier, err := s.suppliers.FindByIDForTenant(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}

	ledgerFilter := partner.LedgerFilter{
		Filter: shared.Filter{Page: filter.Page, PageSize: filter.PageSize, From: filter.From, To: filter.To}.Normalize(),
	}
	if filter.Type != "" {
		txType := partner.LedgerTransactionType(filter.Type)
		if !txType.IsValid() {
			return nil, shared.NewValidationError("Invalid ledger transaction type: " + filter.Type)
		}
		ledgerFilter.Type = &txType
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, shared.NewValidationError("End date must not be before start date")
	}

	txs, total, err := s.ledger.FindBySupplier(ctx, tenantID, supplierID, ledgerFilter)
	if err != nil {
		return nil, err
	}

	return &TransactionHistoryResponse{
		Transactions:    ToLedgerTransactionResponses(txs),
		Total:           total,
		Page:            ledgerFilter.Page,
		PageSize:        ledgerFilter.PageSize,
		CurrentBalance:  supplier.OutstandingBalance,
		CreditLimit:     supplier.CreditLimit,
		AvailableCredit: supplier.AvailableCredit(),
	}, nil
}
