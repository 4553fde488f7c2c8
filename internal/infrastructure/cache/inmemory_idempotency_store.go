package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// It is suitable for a single ledger process and for tests.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
// and starts a background goroutine that evicts expired keys.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(5 * time.Minute)
}

func newInMemoryIdempotencyStore(sweep time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(sweep)

	return store
}

// Remember stores value under key with a TTL.
// An expired key is overwritten as if it were new.
func (s *InMemoryIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, exists := s.entries[key]; exists && e.live(now) {
		return false, nil
	}

	s.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Lookup returns the value stored under key
func (s *InMemoryIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || !e.live(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Forget removes a key
func (s *InMemoryIdempotencyStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop(sweep time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if !e.live(now) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of stored keys, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
