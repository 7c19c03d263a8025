package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
)

// PurchaseRepository persists purchases with their embedded payment history
type PurchaseRepository interface {
	sequence.NumberedDocumentRepository

	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Purchase, error)
	Create(ctx context.Context, purchase *Purchase) error

	// SaveWithLock writes the purchase only if the stored version still
	// equals expectedVersion; otherwise it returns shared.ErrConcurrencyConflict
	SaveWithLock(ctx context.Context, purchase *Purchase, expectedVersion int) error

	// SumCompleted rescans completed purchases of a supplier
	SumCompleted(ctx context.Context, tenantID, supplierID uuid.UUID) (partner.PurchaseStats, error)

	// FindUnpaidPastDue returns completed purchases with a balance whose due
	// date is before now and which are not yet flagged overdue
	FindUnpaidPastDue(ctx context.Context, tenantID *uuid.UUID, now time.Time) ([]*Purchase, error)
}

// PurchaseReturnRepository persists purchase returns
type PurchaseReturnRepository interface {
	sequence.NumberedDocumentRepository

	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseReturn, error)
	FindByPurchase(ctx context.Context, tenantID, purchaseID uuid.UUID) ([]*PurchaseReturn, error)
	Create(ctx context.Context, ret *PurchaseReturn) error
}
