package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// It is safe for concurrent use. Data is lost on service restart - for
// persistence across restarts, use GormStore.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new in-memory idempotency store with the
// given retention window.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Exists implements the Store interface.
func (s *MemoryStore) Exists(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt, ok := s.events[eventID]
	if !ok {
		return false, nil
	}
	if s.now().Sub(createdAt) > s.ttl {
		delete(s.events, eventID)
		return false, nil
	}
	return true, nil
}

// Put implements the Store interface.
func (s *MemoryStore) Put(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[eventID] = s.now()
	return nil
}

// Ensure MemoryStore implements the Store interface.
var _ Store = (*MemoryStore)(nil)
