package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Planning  PlanningConfig  `mapstructure:"planning"`
}

// AppConfig identifies the process in logs and traces
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	LogLevel        string `mapstructure:"log_level"`          // silent, error, warn, info
}

// RedisConfig holds Redis connection settings for the idempotency store
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration.
// Enabled gates everything; MetricsEnabled and DBTraceEnabled narrow it.
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // dev only
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// LedgerConfig holds cost ledger settings
type LedgerConfig struct {
	// TolerantSales is the mode used by marketplace sync callers that do not choose one
	TolerantSales     bool          `mapstructure:"tolerant_sales"`
	BookFinance       bool          `mapstructure:"book_finance"`
	IdempotencyTTL    time.Duration `mapstructure:"idempotency_ttl"`
	IdempotencyCache  string        `mapstructure:"idempotency_cache"` // memory, redis, none
	ValuationInterval time.Duration `mapstructure:"valuation_interval"`
}

// PlanningConfig holds demand planning defaults
type PlanningConfig struct {
	LeadTimeDays int `mapstructure:"lead_time_days"`
	BufferDays   int `mapstructure:"buffer_days"`
}

var defaults = map[string]any{
	"app.name": "costledger",
	"app.env":  "development",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "costledger",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.log_level":          "warn",

	"redis.host":     "",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "costledger",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        "60s",
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": "200ms",

	"ledger.tolerant_sales":     false,
	"ledger.book_finance":       true,
	"ledger.idempotency_ttl":    "24h",
	"ledger.idempotency_cache":  "memory",
	"ledger.valuation_interval": "5m",

	"planning.lead_time_days": 45,
	"planning.buffer_days":    60,
}

// Load reads config.toml from the working directory or /etc/costledger.
// A missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the given TOML file, or searches the default locations when
// file is empty. Priority (highest to lowest):
// 1. Environment variables with COSTLEDGER_ prefix (e.g., COSTLEDGER_DATABASE_PASSWORD)
// 2. the TOML file
// 3. Built-in defaults
func LoadFrom(file string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("toml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/costledger")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("COSTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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
	switch c.Database.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("database.log_level must be one of silent, error, warn, info, got %q", c.Database.LogLevel)
	}

	if c.App.Env == "production" {
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

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	switch c.Ledger.IdempotencyCache {
	case "memory", "none":
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("ledger.idempotency_cache=redis requires redis.host")
		}
	default:
		return fmt.Errorf("ledger.idempotency_cache must be one of memory, redis, none, got %q", c.Ledger.IdempotencyCache)
	}
	if c.Ledger.IdempotencyTTL < 0 {
		return fmt.Errorf("ledger.idempotency_ttl cannot be negative")
	}

	if c.Planning.LeadTimeDays < 0 || c.Planning.BufferDays < 0 {
		return fmt.Errorf("planning.lead_time_days and planning.buffer_days cannot be negative")
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
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

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
