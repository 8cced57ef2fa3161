package trial

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	counts map[string]int
}

// NewMemoryStore constructs an in-memory trial store for dev and tests.
func NewMemoryStore() Store {
	return &memoryStore{counts: make(map[string]int)}
}

func (s *memoryStore) Read(ctx context.Context, guestID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[guestID], nil
}

func (s *memoryStore) Write(ctx context.Context, guestID string, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[guestID] = count
	return nil
}

func (s *memoryStore) Clear(ctx context.Context, guestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, guestID)
	return nil
}
