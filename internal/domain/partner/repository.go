package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// SupplierRepository persists supplier balance aggregates
type SupplierRepository interface {
	// FindByIDForTenant loads a supplier owned by the store
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)

	// FindForShare loads a supplier holding a shared row lock until the
	// surrounding transaction ends
	FindForShare(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)

	// ExistsByCode checks whether the store already has a supplier with the code
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// ListIDs returns supplier identities, optionally restricted to one store
	ListIDs(ctx context.Context, tenantID *uuid.UUID) ([]SupplierKey, error)

	// Create inserts a new supplier
	Create(ctx context.Context, supplier *Supplier) error

	// SaveWithLock writes the supplier only if the stored version still
	// equals expectedVersion; otherwise it returns shared.ErrConcurrencyConflict
	SaveWithLock(ctx context.Context, supplier *Supplier, expectedVersion int) error

	// UpdateStats overwrites the purchase totals without touching the balance
	UpdateStats(ctx context.Context, supplier *Supplier) error
}

// SupplierKey identifies a supplier across stores
type SupplierKey struct {
	TenantID   uuid.UUID
	SupplierID uuid.UUID
}

// LedgerFilter narrows a supplier's transaction history
type LedgerFilter struct {
	shared.Filter
	Type *LedgerTransactionType
}

// LedgerTransactionRepository is the append-only ledger store
type LedgerTransactionRepository interface {
	// Append inserts a new entry. Entries are never updated or deleted.
	Append(ctx context.Context, tx *LedgerTransaction) error

	// FindByID loads one entry
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LedgerTransaction, error)

	// FindBySupplier returns a page of history, newest first, plus the total count
	FindBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, filter LedgerFilter) ([]*LedgerTransaction, int64, error)

	// ListForSupplier returns the full history oldest first, by balance version
	ListForSupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*LedgerTransaction, error)
}

// ReconciliationAuditRepository stores repair audit rows
type ReconciliationAuditRepository interface {
	Append(ctx context.Context, audit *ReconciliationAudit) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, kind *AuditKind) ([]*ReconciliationAudit, error)
}
