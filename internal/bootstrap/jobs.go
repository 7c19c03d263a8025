package bootstrap

import (
	"context"

	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Job names
const (
	JobOverdueSweep = "overdue_sweep"
	JobDriftScan    = "drift_scan"
)

// RegisterJobs adds the background maintenance jobs enabled in cfg. The
// drift scan only reports; repairs stay an explicit operator action.
func (s *Services) RegisterJobs(sched *scheduler.Scheduler, cfg config.LedgerConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.OverdueSweepInterval > 0 {
		err := sched.Add(scheduler.Job{
			Name:     JobOverdueSweep,
			Interval: cfg.OverdueSweepInterval,
			Run: func(ctx context.Context) error {
				marked, err := s.Purchases.MarkOverdue(ctx, nil)
				if marked > 0 {
					log.Info("Purchases marked overdue", zap.Int("count", marked))
				}
				return err
			},
		})
		if err != nil {
			return err
		}
	}
	if cfg.DriftScanInterval > 0 {
		err := sched.Add(scheduler.Job{
			Name:     JobDriftScan,
			Interval: cfg.DriftScanInterval,
			Run: func(ctx context.Context) error {
				reports, err := s.Balances.FindBalanceMismatches(ctx, nil)
				if err != nil {
					return err
				}
				for _, r := range reports {
					log.Warn("Supplier balance drift",
						zap.String("tenant_id", r.TenantID.String()),
						zap.String("supplier_id", r.SupplierID.String()),
						zap.String("stored", r.Stored.String()),
						zap.String("calculated", r.Calculated.String()))
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
