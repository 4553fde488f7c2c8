package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQLOptions tunes SQLLogger.
type SQLOptions struct {
	// SlowThreshold marks statements logged at Warn; zero disables it.
	SlowThreshold time.Duration
	// QuietErrors are logged at Debug instead of Error. Missing rows and
	// duplicate keys are normal ledger outcomes: a lookup miss, or an
	// idempotent insert that lost a race and re-reads the winner.
	QuietErrors []error
}

// DefaultSQLOptions warns above 200ms and quiets missing rows.
func DefaultSQLOptions() SQLOptions {
	return SQLOptions{
		SlowThreshold: 200 * time.Millisecond,
		QuietErrors:   []error{gormlogger.ErrRecordNotFound},
	}
}

// SQLLogger writes GORM statement logs through zap, tagged with the run's
// correlation ID, marketplace and trace ID.
type SQLLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	opts  SQLOptions
}

var _ gormlogger.Interface = (*SQLLogger)(nil)

// NewSQLLogger returns a GORM logger that writes to log under the "sql" name.
func NewSQLLogger(log *zap.Logger, level gormlogger.LogLevel, opts SQLOptions) *SQLLogger {
	return &SQLLogger{log: log.Named("sql"), level: level, opts: opts}
}

// LogMode implements gormlogger.Interface
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *SQLLogger) printf(enabledAt gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < enabledAt {
		return
	}
	if ce := l.log.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write()
	}
}

// Trace implements gormlogger.Interface.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	lvl, msg, ok := l.classify(elapsed, err)
	if !ok {
		return
	}
	ce := l.log.Check(lvl, msg)
	if ce == nil {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if id := GetCorrelationID(ctx); id != "" {
		fields = append(fields, zap.String("correlation_id", id))
	}
	if marketplace := GetMarketplace(ctx); marketplace != "" {
		fields = append(fields, zap.String("marketplace", marketplace))
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// classify picks the zap level and message for one statement, or reports
// that the GORM level filters it out.
func (l *SQLLogger) classify(elapsed time.Duration, err error) (zapcore.Level, string, bool) {
	switch {
	case l.level <= gormlogger.Silent:
		return 0, "", false
	case err != nil && l.quiet(err):
		return zapcore.DebugLevel, "SQL error (expected)", l.level >= gormlogger.Error
	case err != nil:
		return zapcore.ErrorLevel, "SQL error", l.level >= gormlogger.Error
	case l.opts.SlowThreshold > 0 && elapsed > l.opts.SlowThreshold:
		return zapcore.WarnLevel, fmt.Sprintf("slow SQL >= %v", l.opts.SlowThreshold), l.level >= gormlogger.Warn
	default:
		return zapcore.DebugLevel, "SQL", l.level >= gormlogger.Info
	}
}

func (l *SQLLogger) quiet(err error) bool {
	for _, q := range l.opts.QuietErrors {
		if errors.Is(err, q) {
			return true
		}
	}
	return false
}

// ParseSQLLevel maps a config level name to a GORM log level. Unknown names
// mean warn; "debug" logs every statement.
func ParseSQLLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
