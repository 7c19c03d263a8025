// Package pgtest starts a PostgreSQL container with the SQL migrations
// applied. Tests using it are skipped with -short or without Docker.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/migration"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is a migrated database in its own container
type DB struct {
	DB  *gorm.DB
	DSN string
}

// New starts a fresh container and applies every migration
func New(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shelfcure_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	path := migration.FindPath()
	require.NotEmpty(t, path, "Could not find migrations directory")
	m, err := migration.New(sqlDB, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return &DB{DB: db, DSN: dsn}
}
