package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config.toml
const EnvPrefix = "SHELFCURE"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Ledger    LedgerConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings. Redis only backs the
// payment idempotency store; an in-process store is used when disabled.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	TrustedProxies  []string
}

// LedgerConfig tunes contention retries, reconciliation and idempotency
type LedgerConfig struct {
	RetryMaxAttempts         int
	RetryInitialInterval     time.Duration
	RetryMaxInterval         time.Duration
	RetryMultiplier          float64
	RetryRandomizationFactor float64
	DriftEpsilon             decimal.Decimal
	IdempotencyTTL           time.Duration
	// Background job intervals; zero disables the job
	OverdueSweepInterval time.Duration
	DriftScanInterval    time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. localhost:4317
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool

	// Pyroscope continuous profiling
	ProfilingEnabled       bool
	ProfilingServerAddress string
	ProfilingBasicAuthUser string
	ProfilingBasicAuthPass string
	ProfilingMutexFraction int
	ProfilingBlockRate     int
	SpanProfiles           bool // link trace spans to profiles; needs tracing and profiling
}

// Load reads configuration with this priority, highest first:
//  1. SHELFCURE_* environment variables (e.g. SHELFCURE_DATABASE_PASSWORD)
//  2. config.toml
//  3. built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/shelfcure")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		Ledger: LedgerConfig{
			RetryMaxAttempts:         v.GetInt("ledger.retry_max_attempts"),
			RetryInitialInterval:     v.GetDuration("ledger.retry_initial_interval"),
			RetryMaxInterval:         v.GetDuration("ledger.retry_max_interval"),
			RetryMultiplier:          v.GetFloat64("ledger.retry_multiplier"),
			RetryRandomizationFactor: v.GetFloat64("ledger.retry_randomization_factor"),
			IdempotencyTTL:           v.GetDuration("ledger.idempotency_ttl"),
			OverdueSweepInterval:     v.GetDuration("ledger.overdue_sweep_interval"),
			DriftScanInterval:        v.GetDuration("ledger.drift_scan_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),

			ProfilingEnabled:       v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress: v.GetString("telemetry.profiling_server_address"),
			ProfilingBasicAuthUser: v.GetString("telemetry.profiling_basic_auth_user"),
			ProfilingBasicAuthPass: v.GetString("telemetry.profiling_basic_auth_password"),
			ProfilingMutexFraction: v.GetInt("telemetry.profiling_mutex_fraction"),
			ProfilingBlockRate:     v.GetInt("telemetry.profiling_block_rate"),
			SpanProfiles:           v.GetBool("telemetry.span_profiles"),
		},
	}

	if raw := v.GetString("ledger.drift_epsilon"); raw != "" {
		eps, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger.drift_epsilon: %w", err)
		}
		cfg.Ledger.DriftEpsilon = eps
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shelfcure-ledger"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shelfcure"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "shelfcure.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}

	if cfg.Ledger.RetryMaxAttempts == 0 {
		cfg.Ledger.RetryMaxAttempts = 5
	}
	if cfg.Ledger.RetryInitialInterval == 0 {
		cfg.Ledger.RetryInitialInterval = 10 * time.Millisecond
	}
	if cfg.Ledger.RetryMaxInterval == 0 {
		cfg.Ledger.RetryMaxInterval = 200 * time.Millisecond
	}
	if cfg.Ledger.RetryMultiplier == 0 {
		cfg.Ledger.RetryMultiplier = 2
	}
	if cfg.Ledger.RetryRandomizationFactor == 0 {
		cfg.Ledger.RetryRandomizationFactor = 0.5
	}
	if cfg.Ledger.DriftEpsilon.IsZero() {
		cfg.Ledger.DriftEpsilon = decimal.New(1, -4)
	}
	if cfg.Ledger.IdempotencyTTL == 0 {
		cfg.Ledger.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 15 * time.Second
	}
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(c.App.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("app.port must be a port number, got %q", c.App.Port)
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Ledger.RetryMaxAttempts < 1 {
		return fmt.Errorf("ledger.retry_max_attempts must be at least 1")
	}
	if c.Ledger.RetryMultiplier < 1 {
		return fmt.Errorf("ledger.retry_multiplier must be at least 1")
	}
	if c.Ledger.RetryRandomizationFactor < 0 || c.Ledger.RetryRandomizationFactor > 1 {
		return fmt.Errorf("ledger.retry_randomization_factor must be between 0 and 1")
	}
	if !c.Ledger.DriftEpsilon.IsPositive() {
		return fmt.Errorf("ledger.drift_epsilon must be positive")
	}
	if c.Ledger.OverdueSweepInterval < 0 || c.Ledger.DriftScanInterval < 0 {
		return fmt.Errorf("ledger job intervals cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		return fmt.Errorf("telemetry.profiling_server_address is required when profiling is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// DSN returns the postgres connection string with escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
