package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SupplierStatsService recomputes purchase totals from completed purchases.
// Totals are rebuilt from a full rescan every time, never incremented.
type SupplierStatsService struct {
	scope  unitofwork.TransactionScope
	logger *zap.Logger
}

// NewSupplierStatsService creates a new SupplierStatsService
func NewSupplierStatsService(scope unitofwork.TransactionScope, l *zap.Logger) *SupplierStatsService {
	if l == nil {
		l = zap.NewNop()
	}
	return &SupplierStatsService{scope: scope, logger: l}
}

// Recompute rescans the supplier's completed purchases while holding a
// shared lock on the supplier row and overwrites the totals.
func (s *SupplierStatsService) Recompute(ctx context.Context, tenantID, supplierID uuid.UUID) (*SupplierResponse, error) {
	var supplier *partner.Supplier
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		supplier, err = repos.Suppliers().FindForShare(ctx, tenantID, supplierID)
		if err != nil {
			return err
		}
		stats, err := repos.Purchases().SumCompleted(ctx, tenantID, supplierID)
		if err != nil {
			return err
		}
		supplier.ApplyStats(stats)
		return repos.Suppliers().UpdateStats(ctx, supplier)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOr(ctx, s.logger).Info("Supplier stats recomputed",
		zap.String("supplier_id", supplierID.String()),
		zap.Int("total_purchases", supplier.TotalPurchases),
		zap.String("total_purchase_amount", supplier.TotalPurchaseAmount.String()))

	resp := ToSupplierResponse(supplier)
	return &resp, nil
}
