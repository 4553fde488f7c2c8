// Package bootstrap assembles the infrastructure a ledger command needs:
// logger, database, telemetry providers and business metrics.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/erp/costledger/internal/infrastructure/logger"
	"github.com/erp/costledger/internal/infrastructure/persistence"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const meterName = "costledger"

// Runtime holds the long-lived infrastructure of one process
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Metrics *telemetry.BusinessMetrics

	otel   *telemetry.Providers
	dbInst *telemetry.DBInstrumentation
}

// NewLogger builds the process logger from the log section of cfg
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	})
}

// Start connects to the database and initialises telemetry.
// On error everything started so far is shut down again.
func Start(ctx context.Context, cfg *config.Config, log *zap.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
			rt = nil
		}
	}()

	rt.otel, err = telemetry.Setup(ctx, telemetry.Config{
		Tracing:           cfg.Telemetry.Enabled,
		Metrics:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise telemetry: %w", err)
	}

	rt.DB, err = persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	meter := rt.otel.Meter(meterName)
	rt.dbInst, err = telemetry.InstrumentDB(rt.DB.DB, telemetry.DBConfig{
		Tracing:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		Metrics:         rt.otel.MetricsEnabled(),
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, meter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to instrument database: %w", err)
	}

	rt.Metrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             meter,
		Logger:            log,
		ValuationProvider: persistence.NewGormValuationProvider(rt.DB.DB),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return rt, nil
}

// Close stops metrics collection, flushes telemetry and closes the database
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Metrics != nil {
		rt.Metrics.Stop()
	}
	if rt.dbInst != nil {
		errs = append(errs, rt.dbInst.Close())
	}
	if rt.DB != nil {
		errs = append(errs, rt.DB.Close())
	}
	if rt.otel != nil {
		errs = append(errs, rt.otel.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
