package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseRepository implements trade.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByIDForTenant finds a purchase by ID within a store
func (r *GormPurchaseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Purchase, error) {
	var m models.PurchaseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Purchase")
	}
	return m.ToDomain(), nil
}

// Create inserts a new purchase
func (r *GormPurchaseRepository) Create(ctx context.Context, purchase *trade.Purchase) error {
	return r.db.WithContext(ctx).Create(models.PurchaseModelFromDomain(purchase)).Error
}

// SaveWithLock rewrites every mutable column, payment history included, if
// the stored version still equals expectedVersion
func (r *GormPurchaseRepository) SaveWithLock(ctx context.Context, purchase *trade.Purchase, expectedVersion int) error {
	m := models.PurchaseModelFromDomain(purchase)
	result := r.db.WithContext(ctx).
		Model(m).
		Where("tenant_id = ? AND version = ?", purchase.TenantID, expectedVersion).
		Select("*").
		Omit("id", "tenant_id", "supplier_id", "created_at", "created_by").
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Purchase")
	}
	return nil
}

// SumCompleted rescans completed purchases of a supplier
func (r *GormPurchaseRepository) SumCompleted(ctx context.Context, tenantID, supplierID uuid.UUID) (partner.PurchaseStats, error) {
	completed := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Where("tenant_id = ? AND supplier_id = ? AND status = ?", tenantID, supplierID, trade.PurchaseStatusCompleted)

	var totals struct {
		Count int
		Total decimal.Decimal
	}
	if err := completed.Session(&gorm.Session{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Scan(&totals).Error; err != nil {
		return partner.PurchaseStats{}, err
	}

	stats := partner.PurchaseStats{Count: totals.Count, TotalAmount: totals.Total}
	if totals.Count == 0 {
		stats.TotalAmount = decimal.Zero
		return stats, nil
	}

	// a separate read keeps the column type, which aggregate results lose on SQLite
	var latest []time.Time
	if err := completed.Session(&gorm.Session{}).
		Where("completed_at IS NOT NULL").
		Order("completed_at DESC").
		Limit(1).
		Pluck("completed_at", &latest).Error; err != nil {
		return partner.PurchaseStats{}, err
	}
	if len(latest) > 0 {
		last := latest[0]
		stats.LastPurchaseDate = &last
	}
	return stats, nil
}

// FindUnpaidPastDue returns completed purchases with a balance whose due
// date has passed and which are not yet flagged overdue
func (r *GormPurchaseRepository) FindUnpaidPastDue(ctx context.Context, tenantID *uuid.UUID, now time.Time) ([]*trade.Purchase, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND balance_amount > 0 AND due_date IS NOT NULL AND due_date < ? AND payment_status <> ?",
			trade.PurchaseStatusCompleted, now, trade.PaymentStatusOverdue)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}

	var rows []models.PurchaseModel
	if err := query.Order("due_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*trade.Purchase, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindByNumberPrefix returns every purchase of the store whose number starts with prefix
func (r *GormPurchaseRepository) FindByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]sequence.NumberedDocument, error) {
	var docs []sequence.NumberedDocument
	err := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Select("id, purchase_number AS number, created_at").
		Where("tenant_id = ? AND purchase_number LIKE ?", tenantID, prefix+"%").
		Order("created_at ASC, id ASC").
		Scan(&docs).Error
	return docs, err
}

// ReassignNumber changes the number of one purchase
func (r *GormPurchaseRepository) ReassignNumber(ctx context.Context, tenantID, id uuid.UUID, number string) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"purchase_number": number,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Purchase")
	}
	return nil
}

var _ trade.PurchaseRepository = (*GormPurchaseRepository)(nil)
