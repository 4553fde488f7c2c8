package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingRedis(config.RedisConfig) (shared.IdempotencyStore, error) {
	return nil, errors.New("connection refused")
}

func TestIdempotencyStoreFactory_Memory(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.LedgerConfig{IdempotencyCache: BackendMemory}, config.RedisConfig{})

	store, err := f.CreateStore()
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.True(t, f.Config().Enabled)
	assert.Equal(t, 24*time.Hour, f.Config().TTL)
}

func TestIdempotencyStoreFactory_None(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.LedgerConfig{
		IdempotencyCache: BackendNone,
		IdempotencyTTL:   time.Hour,
	}, config.RedisConfig{})

	store, err := f.CreateStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg := f.Config()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.TTL)
}

func TestIdempotencyStoreFactory_RedisFallback(t *testing.T) {
	ledger := config.LedgerConfig{IdempotencyCache: BackendRedis}
	redisCfg := config.RedisConfig{Host: "redis.invalid", Port: 6379}

	t.Run("falls back to memory by default", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(ledger, redisCfg)
		f.connectRedis = failingRedis

		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(ledger, redisCfg, WithInMemoryFallback(false))
		f.connectRedis = failingRedis

		store, err := f.CreateStore()
		assert.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("uses the connected store", func(t *testing.T) {
		mem := NewInMemoryIdempotencyStore()
		defer mem.Close()

		f := NewIdempotencyStoreFactory(ledger, redisCfg, WithInMemoryFallback(false))
		f.connectRedis = func(cfg config.RedisConfig) (shared.IdempotencyStore, error) {
			assert.Equal(t, "redis.invalid:6379", cfg.Addr())
			return mem, nil
		}

		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.Same(t, mem, store)
	})
}

func TestIdempotencyStoreFactory_UnknownBackend(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.LedgerConfig{IdempotencyCache: "memcached"}, config.RedisConfig{})

	store, err := f.CreateStore()
	assert.Error(t, err)
	assert.Nil(t, store)
}
