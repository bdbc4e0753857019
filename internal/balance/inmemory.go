package balance

import (
	"context"
	"sync"
)

type inMemoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewInMemory creates a concurrency-safe in-memory balance store. Deltas are
// applied under one lock, so concurrent credits from both payment rails never
// lose an update.
func NewInMemory() Store {
	return &inMemoryStore{balances: make(map[string]int64)}
}

func (s *inMemoryStore) Get(_ context.Context, renterID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[renterID], nil
}

func (s *inMemoryStore) Credit(_ context.Context, renterID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[renterID] += amount
	return s.balances[renterID], nil
}

func (s *inMemoryStore) Debit(_ context.Context, renterID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[renterID] < amount {
		return s.balances[renterID], ErrInsufficientFunds
	}
	s.balances[renterID] -= amount
	return s.balances[renterID], nil
}
