package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReconciliationAuditRepository stores repair audit rows
type GormReconciliationAuditRepository struct {
	db *gorm.DB
}

// NewGormReconciliationAuditRepository creates a new GormReconciliationAuditRepository
func NewGormReconciliationAuditRepository(db *gorm.DB) *GormReconciliationAuditRepository {
	return &GormReconciliationAuditRepository{db: db}
}

// Append inserts an audit row
func (r *GormReconciliationAuditRepository) Append(ctx context.Context, audit *partner.ReconciliationAudit) error {
	return r.db.WithContext(ctx).Create(models.ReconciliationAuditModelFromDomain(audit)).Error
}

// ListByTenant lists a store's audit rows, newest first
func (r *GormReconciliationAuditRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, kind *partner.AuditKind) ([]*partner.ReconciliationAudit, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}
	var rows []models.ReconciliationAuditModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*partner.ReconciliationAudit, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ partner.ReconciliationAuditRepository = (*GormReconciliationAuditRepository)(nil)
