package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStore(t *testing.T) *RedisIdempotencyStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	store, err := NewRedisIdempotencyStore(config.RedisConfig{Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisIdempotencyStore(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	stored, err := store.Remember(ctx, "sale:ozon:1", "order-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = store.Remember(ctx, "sale:ozon:1", "order-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, stored)

	value, ok, err := store.Lookup(ctx, "sale:ozon:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "order-a", value)

	ttl, err := store.client.TTL(ctx, defaultKeyPrefix+"sale:ozon:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, store.Forget(ctx, "sale:ozon:1"))
	_, ok, err = store.Lookup(ctx, "sale:ozon:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisIdempotencyStore_UnreachableServer(t *testing.T) {
	_, err := NewRedisIdempotencyStore(config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
