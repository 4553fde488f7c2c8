package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "costledger:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis, so that
// several ledger processes share one view of handled external IDs
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store over an existing client
func NewRedisIdempotencyStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Remember stores value under key with SET NX and a TTL
func (s *RedisIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	stored, err := s.client.SetNX(ctx, s.keyPrefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remember idempotency key: %w", err)
	}
	return stored, nil
}

// Lookup returns the value stored under key
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return value, true, nil
}

// Forget removes a key
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to forget idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
