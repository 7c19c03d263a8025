package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerTransactionRepository implements the append-only ledger store
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewGormLedgerTransactionRepository creates a new GormLedgerTransactionRepository
func NewGormLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// Append inserts a new ledger row
func (r *GormLedgerTransactionRepository) Append(ctx context.Context, tx *partner.LedgerTransaction) error {
	return r.db.WithContext(ctx).Create(models.LedgerTransactionModelFromDomain(tx)).Error
}

// FindByID loads one ledger row
func (r *GormLedgerTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.LedgerTransaction, error) {
	var m models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err, "Ledger transaction")
	}
	return m.ToDomain(), nil
}

// FindBySupplier returns one page of a supplier's history, newest first,
// and the number of rows matching the filter
func (r *GormLedgerTransactionRepository) FindBySupplier(ctx context.Context, tenantID, supplierID uuid.UUID, filter partner.LedgerFilter) ([]*partner.LedgerTransaction, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.LedgerTransactionModel{}).
		Where("tenant_id = ? AND supplier_id = ?", tenantID, supplierID)
	if filter.Type != nil {
		query = query.Where("transaction_type = ?", *filter.Type)
	}
	if f.From != nil {
		query = query.Where("transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("transaction_date <= ?", *f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LedgerTransactionModel
	if err := query.
		Order("balance_version DESC, transaction_date DESC, created_at DESC").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerDomain(rows), total, nil
}

// ListForSupplier returns the full history in commit order
func (r *GormLedgerTransactionRepository) ListForSupplier(ctx context.Context, tenantID, supplierID uuid.UUID) ([]*partner.LedgerTransaction, error) {
	var rows []models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND supplier_id = ?", tenantID, supplierID).
		Order("balance_version ASC, transaction_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerDomain(rows), nil
}

func toLedgerDomain(rows []models.LedgerTransactionModel) []*partner.LedgerTransaction {
	out := make([]*partner.LedgerTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ partner.LedgerTransactionRepository = (*GormLedgerTransactionRepository)(nil)
