// Package trade implements the purchase lifecycle and the purchase
// payment sub-ledger.
package trade

import (
	"context"

	"github.com/google/uuid"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	sequenceapp "github.com/subhransupk/shelfcure-sub008/internal/application/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PurchaseService drives purchases through draft, ordered, received and
// completed. Completion and returns change the supplier balance and are
// therefore booked through the transaction recorder.
type PurchaseService struct {
	scope     unitofwork.TransactionScope
	purchases trade.PurchaseRepository
	returns   trade.PurchaseReturnRepository
	numbering *sequenceapp.NumberingService
	recorder  *partnerapp.TransactionRecorder
	stats     *partnerapp.SupplierStatsService
	logger    *zap.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	scope unitofwork.TransactionScope,
	purchases trade.PurchaseRepository,
	returns trade.PurchaseReturnRepository,
	numbering *sequenceapp.NumberingService,
	recorder *partnerapp.TransactionRecorder,
	stats *partnerapp.SupplierStatsService,
	l *zap.Logger,
) *PurchaseService {
	if l == nil {
		l = zap.NewNop()
	}
	return &PurchaseService{
		scope:     scope,
		purchases: purchases,
		returns:   returns,
		numbering: numbering,
		recorder:  recorder,
		stats:     stats,
		logger:    l,
	}
}

// CreatePurchase creates a draft purchase with a freshly minted PO number.
// The due date defaults to the supplier's credit days from now.
func (s *PurchaseService) CreatePurchase(ctx context.Context, tenantID uuid.UUID, req CreatePurchaseRequest, actorID *uuid.UUID) (*PurchaseResponse, error) {
	if !req.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("Total amount must be positive")
	}

	var purchase *trade.Purchase
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		supplier, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, req.SupplierID)
		if err != nil {
			return err
		}
		if !supplier.IsActive() {
			return shared.NewDomainError(shared.CodeInvalidState, "Supplier is not active")
		}

		now := s.recorder.Now()
		number, err := s.numbering.NextDocumentNumber(ctx, repos, tenantID, sequence.DocumentTypePurchase, now)
		if err != nil {
			return err
		}

		dueDate := req.DueDate
		if dueDate == nil && supplier.CreditDays > 0 {
			d := now.AddDate(0, 0, supplier.CreditDays)
			dueDate = &d
		}

		purchase, err = trade.NewPurchase(tenantID, supplier.ID, number, req.TotalAmount, dueDate, req.Notes)
		if err != nil {
			return err
		}
		purchase.SetCreatedBy(actorID)
		return repos.Purchases().Create(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOr(ctx, s.logger).Info("Purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("purchase_number", purchase.PurchaseNumber),
		zap.String("total_amount", purchase.TotalAmount.String()))
	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// GetPurchase returns a purchase
func (s *PurchaseService) GetPurchase(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseResponse, error) {
	purchase, err := s.purchases.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// MarkOrdered moves a draft purchase to ordered
func (s *PurchaseService) MarkOrdered(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseResponse, error) {
	return s.transition(ctx, tenantID, id, "mark_ordered", (*trade.Purchase).MarkOrdered)
}

// MarkReceived moves an ordered purchase to received
func (s *PurchaseService) MarkReceived(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseResponse, error) {
	return s.transition(ctx, tenantID, id, "mark_received", (*trade.Purchase).MarkReceived)
}

// Cancel cancels a purchase that was never completed
func (s *PurchaseService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseResponse, error) {
	return s.transition(ctx, tenantID, id, "cancel", (*trade.Purchase).Cancel)
}

func (s *PurchaseService) transition(ctx context.Context, tenantID, id uuid.UUID, operation string, apply func(*trade.Purchase) error) (*PurchaseResponse, error) {
	var purchase *trade.Purchase
	err := s.recorder.RetryPolicy(operation).Run(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			var err error
			purchase, err = repos.Purchases().FindByIDForTenant(ctx, tenantID, id)
			if err != nil {
				return err
			}
			expectedVersion := purchase.Version
			if err := apply(purchase); err != nil {
				return err
			}
			return repos.Purchases().SaveWithLock(ctx, purchase, expectedVersion)
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// Complete completes the purchase and books its unpaid balance as a
// credit grant on the supplier ledger. Purchase totals are recomputed
// afterwards; a failure there is logged and does not undo the completion.
func (s *PurchaseService) Complete(ctx context.Context, tenantID, id uuid.UUID, actorID *uuid.UUID) (*PurchaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase", "complete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPurchaseID, id.String())
	defer span.End()

	var (
		purchase *trade.Purchase
		entry    *partner.LedgerTransaction
	)
	err := s.recorder.RetryPolicy("complete_purchase").Run(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			var err error
			entry = nil
			purchase, err = repos.Purchases().FindByIDForTenant(ctx, tenantID, id)
			if err != nil {
				return err
			}
			expectedVersion := purchase.Version
			credit, err := purchase.Complete(s.recorder.Now())
			if err != nil {
				return err
			}

			if credit.IsPositive() {
				purchaseID := purchase.ID
				entry, err = s.recorder.RecordWithin(ctx, repos, partnerapp.RecordCommand{
					TenantID:   tenantID,
					SupplierID: purchase.SupplierID,
					Type:       partner.LedgerTransactionTypeCreditGrant,
					Amount:     credit,
					Reference: partner.LedgerReference{
						Type:           partner.ReferenceTypePurchase,
						ID:             &purchaseID,
						DocumentNumber: purchase.PurchaseNumber,
					},
					Description: "Credit for " + purchase.PurchaseNumber,
					ActorID:     actorID,
				})
				if err != nil {
					return err
				}
			}
			return repos.Purchases().SaveWithLock(ctx, purchase, expectedVersion)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recorder.Committed(ctx, entry)

	if s.stats != nil {
		if _, err := s.stats.Recompute(ctx, tenantID, purchase.SupplierID); err != nil {
			logger.FromContextOr(ctx, s.logger).Warn("Failed to recompute supplier stats",
				zap.String("supplier_id", purchase.SupplierID.String()),
				zap.Error(err))
		}
	}

	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// CreateReturn records goods sent back against a completed purchase. The
// return number, the ledger entry and the purchase update commit together.
func (s *PurchaseService) CreateReturn(ctx context.Context, tenantID, purchaseID uuid.UUID, req CreateReturnRequest, actorID *uuid.UUID) (*PurchaseReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase", "create_return",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPurchaseID, purchaseID.String(),
		telemetry.SpanAttrAmount, req.Amount.String())
	defer span.End()

	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("Return amount must be positive")
	}

	var (
		ret   *trade.PurchaseReturn
		entry *partner.LedgerTransaction
	)
	err := s.recorder.RetryPolicy("create_return").Run(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			purchase, err := repos.Purchases().FindByIDForTenant(ctx, tenantID, purchaseID)
			if err != nil {
				return err
			}
			expectedVersion := purchase.Version
			if err := purchase.RecordReturn(req.Amount); err != nil {
				return err
			}

			number, err := s.numbering.NextDocumentNumber(ctx, repos, tenantID, sequence.DocumentTypeReturn, s.recorder.Now())
			if err != nil {
				return err
			}
			ret, err = trade.NewPurchaseReturn(purchase, number, req.Amount, req.Reason, actorID)
			if err != nil {
				return err
			}

			returnID := ret.ID
			entry, err = s.recorder.RecordWithin(ctx, repos, partnerapp.RecordCommand{
				TenantID:   tenantID,
				SupplierID: purchase.SupplierID,
				Type:       partner.LedgerTransactionTypeReturn,
				Amount:     req.Amount,
				Reference: partner.LedgerReference{
					Type:           partner.ReferenceTypePurchaseReturn,
					ID:             &returnID,
					DocumentNumber: number,
				},
				Description: "Return " + number + " against " + purchase.PurchaseNumber,
				ActorID:     actorID,
				Metadata:    map[string]string{"reason": req.Reason},
			})
			if err != nil {
				return err
			}
			ret.LinkLedgerTransaction(entry.ID)

			if err := repos.PurchaseReturns().Create(ctx, ret); err != nil {
				return err
			}
			return repos.Purchases().SaveWithLock(ctx, purchase, expectedVersion)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recorder.Committed(ctx, entry)

	balance := entry.NewBalance
	resp := ToPurchaseReturnResponse(ret, &balance)
	return &resp, nil
}

// ListReturns lists the returns recorded against a purchase
func (s *PurchaseService) ListReturns(ctx context.Context, tenantID, purchaseID uuid.UUID) ([]PurchaseReturnResponse, error) {
	if _, err := s.purchases.FindByIDForTenant(ctx, tenantID, purchaseID); err != nil {
		return nil, err
	}
	returns, err := s.returns.FindByPurchase(ctx, tenantID, purchaseID)
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseReturnResponse, len(returns))
	for i, r := range returns {
		out[i] = ToPurchaseReturnResponse(r, nil)
	}
	return out, nil
}

// MarkOverdue flags completed purchases whose due date has passed with a
// balance still owed. A nil tenantID sweeps every store. It returns the
// number of purchases that were flagged.
func (s *PurchaseService) MarkOverdue(ctx context.Context, tenantID *uuid.UUID) (int, error) {
	now := s.recorder.Now()
	candidates, err := s.purchases.FindUnpaidPastDue(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, c := range candidates {
		tenant, id := c.TenantID, c.ID
		changed := false
		err := s.recorder.RetryPolicy("mark_overdue").Run(ctx, func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
				purchase, err := repos.Purchases().FindByIDForTenant(ctx, tenant, id)
				if err != nil {
					return err
				}
				expectedVersion := purchase.Version
				changed = purchase.RefreshPaymentStatus(now)
				if !changed {
					return nil
				}
				purchase.Touch(now)
				purchase.IncrementVersion()
				return repos.Purchases().SaveWithLock(ctx, purchase, expectedVersion)
			})
		})
		if err != nil {
			return flagged, err
		}
		if changed {
			flagged++
		}
	}

	logger.FromContextOr(ctx, s.logger).Info("Overdue sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("flagged", flagged))
	return flagged, nil
}
