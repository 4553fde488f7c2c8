package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which external keys have already been handled and
// what they resolved to. It is a fast path in front of the database; the
// database unique constraints remain authoritative.
type IdempotencyStore interface {
	// Remember stores value under key with a TTL.
	// Returns true if the key was newly stored, false if it already existed.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Lookup returns the value stored under key, if any
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Forget removes a key, used when the resolved resource no longer exists
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for remembered keys
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether the cache is consulted at all
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
