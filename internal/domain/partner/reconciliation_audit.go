package partner

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// AuditKind identifies what a reconciliation repair changed
type AuditKind string

const (
	AuditKindBalanceRepair  AuditKind = "balance_repair"
	AuditKindSequenceRepair AuditKind = "sequence_repair"
)

// ReconciliationAudit records an explicit repair. Ledger rows are never
// rewritten; the audit row is the trace of a corrected aggregate.
type ReconciliationAudit struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	Kind         AuditKind
	SubjectID    *uuid.UUID
	ScopeKey     string
	StoredBefore decimal.Decimal
	Calculated   decimal.Decimal
	Drift        decimal.Decimal
	Details      string
	ActorID      *uuid.UUID
	Note         string
}

// NewBalanceRepairAudit records that a supplier balance was reset to its ledger fold
func NewBalanceRepairAudit(tenantID, supplierID uuid.UUID, stored, calculated decimal.Decimal, actorID *uuid.UUID, note string) *ReconciliationAudit {
	return &ReconciliationAudit{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		Kind:         AuditKindBalanceRepair,
		SubjectID:    &supplierID,
		StoredBefore: stored,
		Calculated:   calculated,
		Drift:        stored.Sub(calculated),
		ActorID:      actorID,
		Note:         note,
	}
}

// NewSequenceRepairAudit records a duplicate-number repair; details holds
// the JSON list of reassignments.
func NewSequenceRepairAudit(tenantID uuid.UUID, scopeKey, details string, actorID *uuid.UUID, note string) *ReconciliationAudit {
	return &ReconciliationAudit{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		Kind:         AuditKindSequenceRepair,
		ScopeKey:     scopeKey,
		StoredBefore: decimal.Zero,
		Calculated:   decimal.Zero,
		Drift:        decimal.Zero,
		Details:      details,
		ActorID:      actorID,
		Note:         note,
	}
}
