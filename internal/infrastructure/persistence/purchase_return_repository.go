package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseReturnRepository implements trade.PurchaseReturnRepository using GORM
type GormPurchaseReturnRepository struct {
	db *gorm.DB
}

// NewGormPurchaseReturnRepository creates a new GormPurchaseReturnRepository
func NewGormPurchaseReturnRepository(db *gorm.DB) *GormPurchaseReturnRepository {
	return &GormPurchaseReturnRepository{db: db}
}

// FindByIDForTenant finds a return by ID within a store
func (r *GormPurchaseReturnRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseReturn, error) {
	var m models.PurchaseReturnModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Purchase return")
	}
	return m.ToDomain(), nil
}

// FindByPurchase lists the returns raised against a purchase, oldest first
func (r *GormPurchaseReturnRepository) FindByPurchase(ctx context.Context, tenantID, purchaseID uuid.UUID) ([]*trade.PurchaseReturn, error) {
	var rows []models.PurchaseReturnModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND purchase_id = ?", tenantID, purchaseID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*trade.PurchaseReturn, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new return
func (r *GormPurchaseReturnRepository) Create(ctx context.Context, ret *trade.PurchaseReturn) error {
	return r.db.WithContext(ctx).Create(models.PurchaseReturnModelFromDomain(ret)).Error
}

// FindByNumberPrefix returns every return of the store whose number starts with prefix
func (r *GormPurchaseReturnRepository) FindByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]sequence.NumberedDocument, error) {
	var docs []sequence.NumberedDocument
	err := r.db.WithContext(ctx).Model(&models.PurchaseReturnModel{}).
		Select("id, return_number AS number, created_at").
		Where("tenant_id = ? AND return_number LIKE ?", tenantID, prefix+"%").
		Order("created_at ASC, id ASC").
		Scan(&docs).Error
	return docs, err
}

// ReassignNumber changes the number of one return
func (r *GormPurchaseReturnRepository) ReassignNumber(ctx context.Context, tenantID, id uuid.UUID, number string) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseReturnModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"return_number": number,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Purchase return")
	}
	return nil
}

var _ trade.PurchaseReturnRepository = (*GormPurchaseReturnRepository)(nil)
