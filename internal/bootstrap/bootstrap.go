// Package bootstrap wires configuration, storage and the ledger services
// shared by the server and the operator tooling.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/application/reconciliation"
	sequenceapp "github.com/subhransupk/shelfcure-sub008/internal/application/sequence"
	tradeapp "github.com/subhransupk/shelfcure-sub008/internal/application/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/application/unitofwork"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/persistence"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of the ledger metrics
const MeterName = "github.com/subhransupk/shelfcure-sub008/ledger"

// Services holds the application services built over one database
type Services struct {
	Database  *persistence.Database
	Repos     *unitofwork.Repositories
	Scope     unitofwork.TransactionScope
	Metrics   *telemetry.LedgerMetrics
	Recorder  *partnerapp.TransactionRecorder
	Suppliers *partnerapp.SupplierLedgerService
	Stats     *partnerapp.SupplierStatsService
	Numbering *sequenceapp.NumberingService
	Purchases *tradeapp.PurchaseService
	Payments  *tradeapp.PaymentLedger
	Balances  *reconciliation.BalanceChecker
	Sequences *reconciliation.SequenceRepairer
}

// RetryPolicy converts the ledger retry settings
func RetryPolicy(cfg config.LedgerConfig) unitofwork.RetryPolicy {
	return unitofwork.RetryPolicy{
		MaxAttempts:         cfg.RetryMaxAttempts,
		InitialInterval:     cfg.RetryInitialInterval,
		MaxInterval:         cfg.RetryMaxInterval,
		Multiplier:          cfg.RetryMultiplier,
		RandomizationFactor: cfg.RetryRandomizationFactor,
	}
}

// TelemetryConfig converts the telemetry settings
func TelemetryConfig(cfg *config.Config, version string) telemetry.Config {
	name := cfg.Telemetry.ServiceName
	if name == "" {
		name = cfg.App.Name
	}
	return telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       name,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		SpanProfiles:      cfg.Telemetry.SpanProfiles && cfg.Telemetry.ProfilingEnabled,
	}
}

// ProfilerConfig converts the profiling settings
func ProfilerConfig(cfg *config.Config) telemetry.ProfilerConfig {
	name := cfg.Telemetry.ServiceName
	if name == "" {
		name = cfg.App.Name
	}
	return telemetry.ProfilerConfig{
		Enabled:              cfg.Telemetry.ProfilingEnabled,
		ServerAddress:        cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:      name,
		BasicAuthUser:        cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword:    cfg.Telemetry.ProfilingBasicAuthPass,
		MutexProfileFraction: cfg.Telemetry.ProfilingMutexFraction,
		BlockProfileRate:     cfg.Telemetry.ProfilingBlockRate,
	}
}

// Open connects to the configured database and builds every service.
// SQLite databases get their schema from the models; Postgres relies on
// the SQL migrations having been applied.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	svc, err := build(cfg, db, log)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	log.Info("Ledger services ready", zap.String("driver", cfg.Database.Driver))
	return svc, nil
}

func build(cfg *config.Config, db *persistence.Database, log *zap.Logger) (*Services, error) {
	if db.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			return nil, err
		}
	}

	dbSystem := "postgresql"
	if db.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:               cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:              dbSystem,
		IncludeQueryVariables: cfg.Telemetry.DBLogFullSQL,
	}); err != nil {
		return nil, fmt.Errorf("register database tracing: %w", err)
	}

	metrics, err := telemetry.NewLedgerMetrics(otel.GetMeterProvider().Meter(MeterName))
	if err != nil {
		return nil, fmt.Errorf("create ledger metrics: %w", err)
	}

	retry := RetryPolicy(cfg.Ledger)
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	recorder := partnerapp.NewTransactionRecorder(scope,
		partnerapp.WithRetryPolicy(retry),
		partnerapp.WithMetrics(metrics),
		partnerapp.WithLogger(log))
	stats := partnerapp.NewSupplierStatsService(scope, log)
	numbering := sequenceapp.NewNumberingService(repos.Counters(), metrics, log)

	reconOpts := []reconciliation.Option{
		reconciliation.WithRetryPolicy(retry),
		reconciliation.WithMetrics(metrics),
		reconciliation.WithLogger(log),
		reconciliation.WithDriftEpsilon(cfg.Ledger.DriftEpsilon),
	}

	return &Services{
		Database:  db,
		Repos:     repos,
		Scope:     scope,
		Metrics:   metrics,
		Recorder:  recorder,
		Suppliers: partnerapp.NewSupplierLedgerService(scope, repos.Suppliers(), repos.LedgerTransactions(), recorder),
		Stats:     stats,
		Numbering: numbering,
		Purchases: tradeapp.NewPurchaseService(scope, repos.Purchases(), repos.PurchaseReturns(), numbering, recorder, stats, log),
		Payments:  tradeapp.NewPaymentLedger(scope, repos.Purchases(), recorder),
		Balances:  reconciliation.NewBalanceChecker(scope, reconOpts...),
		Sequences: reconciliation.NewSequenceRepairer(scope, reconOpts...),
	}, nil
}

// Close releases the database connection
func (s *Services) Close() error {
	return s.Database.Close()
}
