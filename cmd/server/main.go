package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/bootstrap"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/cache"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/migration"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/scheduler"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/middleware"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		configPath string
		migrate    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (default: search ./config.toml, ./config, /etc/shelfcure)")
	flag.BoolVar(&migrate, "migrate", false, "Apply pending SQL migrations before serving (postgres only)")
	flag.Parse()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	providers, err := telemetry.Init(ctx, bootstrap.TelemetryConfig(cfg, version), log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if logs := providers.Logs(); logs != nil {
		log = logs.Bridge(log)
	}

	profiler, err := telemetry.NewProfiler(bootstrap.ProfilerConfig(cfg), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	services, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if migrate {
		if err := runMigrations(services, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.NewEngine(router.Dependencies{
		Logger:         log,
		Database:       services.Database,
		Suppliers:      services.Suppliers,
		Purchases:      services.Purchases,
		Payments:       services.Payments,
		Idempotency:    store,
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling:      profiler.IsEnabled(),
		CORS:           middleware.DefaultCORSConfig(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Version:        version,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	jobs := scheduler.New(log)
	if err := services.RegisterJobs(jobs, cfg.Ledger, log); err != nil {
		log.Fatal("Failed to register background jobs", zap.Error(err))
	}
	jobs.Start(ctx)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Background jobs did not stop in time", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func runMigrations(services *bootstrap.Services, log *zap.Logger) error {
	if services.Database.Driver != "postgres" {
		log.Info("Skipping SQL migrations; schema is created from the models",
			zap.String("driver", services.Database.Driver))
		return nil
	}
	path := migration.FindPath()
	if path == "" {
		return errors.New("migrations directory not found")
	}
	sqlDB, err := services.Database.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, path, log)
	if err != nil {
		return err
	}
	// closing the migrator would close the shared connection pool
	return m.Up()
}
