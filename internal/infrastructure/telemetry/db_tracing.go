package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// DBTracingConfig controls database spans
type DBTracingConfig struct {
	Enabled bool
	// DBSystem is reported as db.system, e.g. "postgresql" or "sqlite"
	DBSystem string
	// IncludeQueryVariables puts bound values into spans; development only
	IncludeQueryVariables bool
}

// RegisterDBTracing installs the otelgorm plugin on db
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	return db.Use(otelgorm.NewPlugin(opts...))
}
