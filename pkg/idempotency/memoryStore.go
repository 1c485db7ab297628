package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process implementation: a mutex-guarded map from
// order id to processed timestamp. The check-then-mark race across separate
// consumer instances is accepted; use the redis backend when instances must
// share visibility.
type MemoryStore struct {
	mu        sync.Mutex
	processed map[string]time.Time
	retention time.Duration
	nowFunc   func() time.Time
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		processed: make(map[string]time.Time),
		retention: retention,
		nowFunc:   time.Now,
	}
}

func (s *MemoryStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.processed[orderID]
	if !ok {
		return false, nil
	}
	return s.nowFunc().Sub(at) <= s.retention, nil
}

func (s *MemoryStore) MarkProcessed(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	s.processed[orderID] = now

	// sweep expired entries; capacity stays bounded by traffic over the window
	for id, at := range s.processed {
		if now.Sub(at) > s.retention {
			delete(s.processed, id)
		}
	}
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
