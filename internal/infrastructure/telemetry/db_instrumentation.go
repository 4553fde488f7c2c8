package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database tracing and metrics.
type DBConfig struct {
	Tracing         bool          // Register otelgorm spans
	Metrics         bool          // Record query counters, latency and pool gauges
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Default: 200ms
	DBSystem        string        // Default: "postgresql"
}

// DefaultDBConfig returns the secure defaults: no SQL variables in spans.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBInstrumentation owns the GORM callbacks that trace and meter queries.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolGauge      metric.Registration
}

type queryStartKey struct{}

// queryHook pairs a GORM processor with the SQL verb recorded for it.
// An empty verb means the statement is classified by its SQL text.
type queryHook struct {
	name   string
	verb   string
	before func(string, func(*gorm.DB)) error
	after  func(string, func(*gorm.DB)) error
}

func queryHooks(db *gorm.DB) []queryHook {
	cb := db.Callback()
	return []queryHook{
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
}

// InstrumentDB registers tracing and metrics on db according to cfg.
// meter may be nil when metrics are disabled.
func InstrumentDB(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	inst := &DBInstrumentation{config: cfg, logger: logger}

	if !cfg.Tracing && !cfg.Metrics {
		logger.Debug("Database instrumentation disabled")
		return inst, nil
	}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
	}

	if cfg.Metrics {
		if meter == nil {
			return nil, ErrMeterNil
		}
		if err := inst.initMetrics(db, meter); err != nil {
			return nil, err
		}
	}

	for _, hook := range queryHooks(db) {
		verb := hook.verb
		if err := hook.before("ledger_db:before_"+hook.name, markStart); err != nil {
			return nil, err
		}
		if err := hook.after("ledger_db:after_"+hook.name, func(tx *gorm.DB) {
			inst.afterQuery(tx, verb)
		}); err != nil {
			return nil, err
		}
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.Tracing),
		zap.Bool("metrics", cfg.Metrics),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return inst, nil
}

func (i *DBInstrumentation) initMetrics(db *gorm.DB, meter metric.Meter) error {
	var err error
	if i.queryTotal, err = NewCounter(meter,
		"db_query_total", "Database queries by operation", "{query}"); err != nil {
		return err
	}
	if i.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return err
	}
	if i.slowQueryTotal, err = NewCounter(meter,
		"db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	i.poolGauge, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		observePool(o, connections, sqlDB.Stats())
		return nil
	}, connections)
	return err
}

func observePool(o metric.Observer, gauge metric.Int64ObservableGauge, stats sql.DBStats) {
	o.ObserveInt64(gauge, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
	o.ObserveInt64(gauge, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
	o.ObserveInt64(gauge, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
}

// Close unregisters the pool gauge callback.
func (i *DBInstrumentation) Close() error {
	if i.poolGauge == nil {
		return nil
	}
	return i.poolGauge.Unregister()
}

func markStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (i *DBInstrumentation) afterQuery(db *gorm.DB, verb string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if verb == "" {
		verb = detectOperationType(db.Statement.SQL.String())
	}

	var elapsed time.Duration
	started, timed := ctx.Value(queryStartKey{}).(time.Time)
	if timed {
		elapsed = time.Since(started)
	}
	slow := timed && elapsed > i.config.SlowQueryThresh

	if i.queryTotal != nil {
		i.queryTotal.Inc(ctx, AttrDBOperation.String(verb))
		i.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(verb))
		if slow {
			i.slowQueryTotal.Inc(ctx, AttrDBTable.String(tableOrUnknown(db.Statement.Table)))
		}
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", i.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

func tableOrUnknown(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}

// detectOperationType classifies raw SQL by its leading verb
func detectOperationType(query string) string {
	query = strings.TrimSpace(strings.ToUpper(query))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, verb) {
			return verb
		}
	}
	return "OTHER"
}
