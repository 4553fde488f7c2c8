package cache

import (
	"fmt"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Idempotency cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	ledgerConfig          config.LedgerConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connectRedis          func(config.RedisConfig) (shared.IdempotencyStore, error)
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(ledger config.LedgerConfig, redisCfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		ledgerConfig:          ledger,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connectRedis: func(cfg config.RedisConfig) (shared.IdempotencyStore, error) {
			return NewRedisIdempotencyStore(cfg)
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Config returns the idempotency settings the sale service should use.
// The "none" backend disables the cache; database constraints still deduplicate.
func (f *IdempotencyStoreFactory) Config() shared.IdempotencyConfig {
	cfg := shared.DefaultIdempotencyConfig()
	if f.ledgerConfig.IdempotencyTTL > 0 {
		cfg.TTL = f.ledgerConfig.IdempotencyTTL
	}
	cfg.Enabled = f.ledgerConfig.IdempotencyCache != BackendNone
	return cfg
}

// CreateStore creates the configured store. It returns nil for the "none" backend.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	switch f.ledgerConfig.IdempotencyCache {
	case BackendNone:
		f.logger.Info("Idempotency cache disabled")
		return nil, nil
	case BackendMemory, "":
		f.logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	case BackendRedis:
		store, err := f.connectRedis(f.redisConfig)
		if err == nil {
			f.logger.Info("Using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate sales from other processes are still rejected by the database.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency cache backend %q", f.ledgerConfig.IdempotencyCache)
	}
}
