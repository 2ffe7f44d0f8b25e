package store

import (
	"context"
	"sync"
	"time"

	"github.com/jbattja/fugata-sub001/internal/core"
)

var _ core.ConsumedStore = (*InMemoryConsumedStore)(nil)

// InMemoryConsumedStore marks redirect actions as consumed within a single
// process. Suitable for a single bridge instance; multi-instance deployments
// use the Redis store instead.
type InMemoryConsumedStore struct {
	mu       sync.Mutex
	consumed map[string]time.Time // key -> marker expiry
}

func NewInMemoryConsumedStore() *InMemoryConsumedStore {
	return &InMemoryConsumedStore{
		consumed: make(map[string]time.Time),
	}
}

// Consume returns true the first time a key is seen and false for every
// repeat within ttl.
func (s *InMemoryConsumedStore) Consume(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.consumed[key]; ok && expiry.After(now) {
		return false, nil
	}
	s.consumed[key] = now.Add(ttl)
	return true, nil
}

// DeleteExpired drops markers past their expiry and reports how many were
// removed.
func (s *InMemoryConsumedStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var deletedCount int64
	for key, expiry := range s.consumed {
		if !expiry.After(now) {
			delete(s.consumed, key)
			deletedCount++
		}
	}
	return deletedCount, nil
}
