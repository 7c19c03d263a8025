package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DriftEpsilon is the largest difference between stored and calculated
// balances treated as rounding noise.
var DriftEpsilon = decimal.New(1, -4)

// BalanceReport is the outcome of checking one supplier
type BalanceReport struct {
	TenantID         uuid.UUID            `json:"tenant_id"`
	SupplierID       uuid.UUID            `json:"supplier_id"`
	OK               bool                 `json:"ok"`
	Calculated       decimal.Decimal      `json:"calculated"`
	Stored           decimal.Decimal      `json:"stored"`
	Drift            decimal.Decimal      `json:"drift"`
	DriftDetected    bool                 `json:"drift_detected"`
	TransactionCount int                  `json:"transaction_count"`
	ChainBreaks      []partner.ChainBreak `json:"chain_breaks,omitempty"`
}

// RepairResult is the outcome of a balance repair
type RepairResult struct {
	BalanceReport
	Repaired bool       `json:"repaired"`
	AuditID  *uuid.UUID `json:"audit_id,omitempty"`
}

// BalanceChecker folds supplier ledgers and compares them to the stored
// outstanding balances. Verification never writes; repair is an explicit
// separate call and never touches ledger rows.
type BalanceChecker struct {
	scope unitofwork.TransactionScope
	settings
}

// NewBalanceChecker creates a new BalanceChecker
func NewBalanceChecker(scope unitofwork.TransactionScope, opts ...Option) *BalanceChecker {
	c := &BalanceChecker{scope: scope, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&c.settings)
	}
	return c
}

func check(supplier *partner.Supplier, txs []*partner.LedgerTransaction, epsilon decimal.Decimal) *BalanceReport {
	partner.SortLedger(txs)
	calculated := partner.FoldBalance(txs)
	r := &BalanceReport{
		TenantID:         supplier.TenantID,
		SupplierID:       supplier.ID,
		Calculated:       calculated,
		Stored:           supplier.OutstandingBalance,
		Drift:            supplier.OutstandingBalance.Sub(calculated),
		TransactionCount: len(txs),
		ChainBreaks:      partner.FindChainBreaks(txs),
	}
	r.DriftDetected = r.Drift.Abs().GreaterThan(epsilon)
	r.OK = !r.DriftDetected && len(r.ChainBreaks) == 0
	return r
}

// VerifyBalance recomputes the supplier's balance from its ledger
func (c *BalanceChecker) VerifyBalance(ctx context.Context, tenantID, supplierID uuid.UUID) (*BalanceReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "verify_balance",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSupplierID, supplierID.String())
	defer span.End()

	var report *BalanceReport
	err := c.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		supplier, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, supplierID)
		if err != nil {
			return err
		}
		txs, err := repos.LedgerTransactions().ListForSupplier(ctx, tenantID, supplierID)
		if err != nil {
			return err
		}
		report = check(supplier, txs, c.epsilon)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !report.OK {
		c.metrics.RecordDrift(ctx)
		logger.FromContextOr(ctx, c.logger).Warn("Supplier balance drift detected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("supplier_id", supplierID.String()),
			zap.String("stored", report.Stored.String()),
			zap.String("calculated", report.Calculated.String()),
			zap.String("drift", report.Drift.String()),
			zap.Int("chain_breaks", len(report.ChainBreaks)))
	}
	return report, nil
}

// RepairBalance sets the stored balance to the ledger fold and writes an
// audit row in the same transaction. Without drift it changes nothing.
func (c *BalanceChecker) RepairBalance(ctx context.Context, tenantID, supplierID uuid.UUID, actorID *uuid.UUID, note string) (*RepairResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "repair_balance",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSupplierID, supplierID.String())
	defer span.End()

	var result *RepairResult
	err := c.retry.Run(ctx, func(ctx context.Context) error {
		return c.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			supplier, err := repos.Suppliers().FindByIDForTenant(ctx, tenantID, supplierID)
			if err != nil {
				return err
			}
			txs, err := repos.LedgerTransactions().ListForSupplier(ctx, tenantID, supplierID)
			if err != nil {
				return err
			}
			report := check(supplier, txs, c.epsilon)
			result = &RepairResult{BalanceReport: *report}
			if !report.DriftDetected {
				return nil
			}

			expectedVersion := supplier.Version
			if err := supplier.OverrideBalance(report.Calculated, c.now()); err != nil {
				return err
			}
			if err := repos.Suppliers().SaveWithLock(ctx, supplier, expectedVersion); err != nil {
				return err
			}
			audit := partner.NewBalanceRepairAudit(tenantID, supplierID, report.Stored, report.Calculated, actorID, note)
			if err := repos.Audits().Append(ctx, audit); err != nil {
				return err
			}
			result.Repaired = true
			result.AuditID = &audit.ID
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.Repaired {
		logger.FromContextOr(ctx, c.logger).Warn("Supplier balance repaired from ledger",
			zap.String("tenant_id", tenantID.String()),
			zap.String("supplier_id", supplierID.String()),
			zap.String("stored_before", result.Stored.String()),
			zap.String("calculated", result.Calculated.String()),
			zap.String("audit_id", result.AuditID.String()))
	}
	return result, nil
}

// FindBalanceMismatches verifies every supplier, or every supplier of one
// store when tenantID is set, and returns the reports that are not OK.
func (c *BalanceChecker) FindBalanceMismatches(ctx context.Context, tenantID *uuid.UUID) ([]*BalanceReport, error) {
	var keys []partner.SupplierKey
	err := c.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		keys, err = repos.Suppliers().ListIDs(ctx, tenantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	mismatches := make([]*BalanceReport, 0)
	for _, k := range keys {
		report, err := c.VerifyBalance(ctx, k.TenantID, k.SupplierID)
		if err != nil {
			return nil, err
		}
		if !report.OK {
			mismatches = append(mismatches, report)
		}
	}

	logger.FromContextOr(ctx, c.logger).Info("Balance scan finished",
		zap.Int("suppliers", len(keys)),
		zap.Int("mismatches", len(mismatches)))
	return mismatches, nil
}
