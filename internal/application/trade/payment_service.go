package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
)

// RecordPaymentCommand is a payment against a purchase
type RecordPaymentCommand struct {
	TenantID       uuid.UUID
	PurchaseID     uuid.UUID
	Amount         decimal.Decimal
	Method         trade.PaymentMethod
	TransactionID  string
	Notes          string
	ActorID        *uuid.UUID
	IdempotencyKey string
}

// PaymentLedger records supplier payments against purchases. Each payment
// writes exactly one ledger entry and one payment record in the same
// database transaction, so a failed ledger write leaves the purchase as it was.
type PaymentLedger struct {
	scope     unitofwork.TransactionScope
	purchases trade.PurchaseRepository
	recorder  *partnerapp.TransactionRecorder
}

// NewPaymentLedger creates a new PaymentLedger
func NewPaymentLedger(scope unitofwork.TransactionScope, purchases trade.PurchaseRepository, recorder *partnerapp.TransactionRecorder) *PaymentLedger {
	return &PaymentLedger{scope: scope, purchases: purchases, recorder: recorder}
}

// RecordPayment pays amount towards the purchase. Paying more than the
// purchase balance fails with an excess payment error; it is never clamped.
func (l *PaymentLedger) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_payment", "record",
		telemetry.SpanAttrTenantID, cmd.TenantID.String(),
		telemetry.SpanAttrPurchaseID, cmd.PurchaseID.String(),
		telemetry.SpanAttrAmount, cmd.Amount.String())
	defer span.End()
	start := time.Now()

	if !cmd.Amount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	if !cmd.Method.IsValid() {
		return nil, shared.NewValidationError("Invalid payment method: " + string(cmd.Method))
	}

	var (
		result *PaymentResult
		entry  *partner.LedgerTransaction
	)
	err := l.recorder.RetryPolicy("record_payment").Run(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			purchase, err := repos.Purchases().FindByIDForTenant(ctx, cmd.TenantID, cmd.PurchaseID)
			if err != nil {
				return err
			}
			if err := purchase.CanAcceptPayment(cmd.Amount); err != nil {
				return err
			}
			expectedVersion := purchase.Version
			purchaseID := purchase.ID

			entry, err = l.recorder.RecordWithin(ctx, repos, partnerapp.RecordCommand{
				TenantID:   cmd.TenantID,
				SupplierID: purchase.SupplierID,
				Type:       partner.LedgerTransactionTypePayment,
				Amount:     cmd.Amount,
				Reference: partner.LedgerReference{
					Type:           partner.ReferenceTypePurchase,
					ID:             &purchaseID,
					DocumentNumber: purchase.PurchaseNumber,
				},
				Description: "Payment for " + purchase.PurchaseNumber,
				ActorID:     cmd.ActorID,
				Metadata:    paymentMetadata(cmd),
			})
			if err != nil {
				return err
			}

			record, err := purchase.ApplyPayment(trade.PaymentDetails{
				Amount:         cmd.Amount,
				Method:         cmd.Method,
				TransactionID:  cmd.TransactionID,
				Notes:          cmd.Notes,
				ActorID:        cmd.ActorID,
				IdempotencyKey: cmd.IdempotencyKey,
			}, entry.ID, entry.TransactionDate)
			if err != nil {
				return err
			}
			if err := repos.Purchases().SaveWithLock(ctx, purchase, expectedVersion); err != nil {
				return err
			}

			result = &PaymentResult{
				PaymentAmount:   record.Amount,
				NewBalance:      purchase.BalanceAmount,
				PaymentStatus:   string(purchase.PaymentStatus),
				SupplierBalance: entry.NewBalance,
				Payment:         ToPaymentRecordResponse(*record),
			}
			return nil
		})
	})
	l.recorder.Metrics().RecordDuration(ctx, "record_payment", time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	l.recorder.Committed(ctx, entry)
	return result, nil
}

func paymentMetadata(cmd RecordPaymentCommand) map[string]string {
	md := map[string]string{"method": string(cmd.Method)}
	if cmd.TransactionID != "" {
		md["external_transaction_id"] = cmd.TransactionID
	}
	if cmd.IdempotencyKey != "" {
		md["idempotency_key"] = cmd.IdempotencyKey
	}
	return md
}

// GetPaymentHistory returns the payment summary and records of a purchase
func (l *PaymentLedger) GetPaymentHistory(ctx context.Context, tenantID, purchaseID uuid.UUID) (*PaymentHistoryResponse, error) {
	purchase, err := l.purchases.FindByIDForTenant(ctx, tenantID, purchaseID)
	if err != nil {
		return nil, err
	}

	now := l.recorder.Now()
	payments := make([]PaymentRecordResponse, len(purchase.PaymentHistory))
	for i, r := range purchase.PaymentHistory {
		payments[i] = ToPaymentRecordResponse(r)
	}
	status := purchase.PaymentStatus
	if purchase.IsOverdue(now) {
		status = trade.PaymentStatusOverdue
	}

	return &PaymentHistoryResponse{
		PurchaseID:     purchase.ID,
		PurchaseNumber: purchase.PurchaseNumber,
		TotalAmount:    purchase.TotalAmount,
		PaidAmount:     purchase.PaidAmount,
		BalanceAmount:  purchase.BalanceAmount,
		PaymentStatus:  string(status),
		IsFullyPaid:    purchase.IsFullyPaid(),
		IsOverdue:      purchase.IsOverdue(now),
		DueDate:        purchase.DueDate,
		Payments:       payments,
	}, nil
}
