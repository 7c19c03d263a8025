package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByIDForTenant finds a supplier by ID within a store
func (r *GormSupplierRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Supplier, error) {
	var m models.SupplierModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Supplier")
	}
	return m.ToDomain(), nil
}

// FindForShare loads the supplier with FOR SHARE so concurrent balance
// writers wait until the surrounding transaction ends
func (r *GormSupplierRepository) FindForShare(ctx context.Context, tenantID, id uuid.UUID) (*partner.Supplier, error) {
	var m models.SupplierModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Supplier")
	}
	return m.ToDomain(), nil
}

// ExistsByCode checks if a supplier code is taken within a store
func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SupplierModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListIDs returns supplier identities, optionally for one store only
func (r *GormSupplierRepository) ListIDs(ctx context.Context, tenantID *uuid.UUID) ([]partner.SupplierKey, error) {
	var rows []struct {
		TenantID uuid.UUID
		ID       uuid.UUID
	}
	query := r.db.WithContext(ctx).Model(&models.SupplierModel{}).Select("tenant_id, id")
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	if err := query.Order("tenant_id, created_at, id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	keys := make([]partner.SupplierKey, len(rows))
	for i, row := range rows {
		keys[i] = partner.SupplierKey{TenantID: row.TenantID, SupplierID: row.ID}
	}
	return keys, nil
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	return r.db.WithContext(ctx).Create(models.SupplierModelFromDomain(supplier)).Error
}

// SaveWithLock is a compare-and-swap on version: the row is written only if
// nobody else wrote it since it was read.
func (r *GormSupplierRepository) SaveWithLock(ctx context.Context, supplier *partner.Supplier, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", supplier.ID, supplier.TenantID, expectedVersion).
		Updates(map[string]any{
			"name":                supplier.Name,
			"status":              supplier.Status,
			"credit_limit":        supplier.CreditLimit,
			"credit_days":         supplier.CreditDays,
			"outstanding_balance": supplier.OutstandingBalance,
			"last_purchase_date":  supplier.LastPurchaseDate,
			"last_payment_date":   supplier.LastPaymentDate,
			"version":             supplier.Version,
			"updated_at":          supplier.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflict("Supplier")
	}
	return nil
}

// UpdateStats overwrites the purchase totals only
func (r *GormSupplierRepository) UpdateStats(ctx context.Context, supplier *partner.Supplier) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("id = ? AND tenant_id = ?", supplier.ID, supplier.TenantID).
		Updates(map[string]any{
			"total_purchases":       supplier.TotalPurchases,
			"total_purchase_amount": supplier.TotalPurchaseAmount,
			"last_purchase_date":    supplier.LastPurchaseDate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Supplier")
	}
	return nil
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
