package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/bookstore/internal/orders/ports"
)

// Store retains idempotency claims and responses for replaying duplicate
// requests. A nil map value marks a claimed key whose request is still in
// flight.
type Store struct {
	mu    sync.RWMutex
	items map[string]*ports.StoredResponse
}

// NewStore creates a new in-memory idempotency store.
func NewStore() *Store {
	return &Store{items: make(map[string]*ports.StoredResponse)}
}

// Reserve claims the key if it is free.
func (s *Store) Reserve(_ context.Context, key string) (*ports.StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, claimed := s.items[key]
	if !claimed {
		s.items[key] = nil
		return nil, true, nil
	}
	if stored == nil {
		return nil, false, nil
	}
	copy := *stored
	return &copy, false, nil
}

// Save stores the response for a claimed key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = &response
	return nil
}

// Delete drops the claim so a failed request can be retried.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Get returns the stored response for a key if a request completed.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.items[key]
	if !ok || stored == nil {
		return nil, nil
	}
	copy := *stored
	return &copy, nil
}
