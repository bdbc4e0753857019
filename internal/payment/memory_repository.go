package payment

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	pending map[string]Pending
}

// NewMemoryRepository builds an in-memory pending payment store.
func NewMemoryRepository() PendingRepo {
	return &memoryRepository{pending: make(map[string]Pending)}
}

func (r *memoryRepository) Put(_ context.Context, p Pending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.Ref] = p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, ref string) (Pending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[ref]
	if !ok {
		return Pending{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) Delete(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, ref)
	return nil
}

func (r *memoryRepository) ByRenter(_ context.Context, renterID string) (Pending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pending {
		if p.RenterID == renterID {
			return p, nil
		}
	}
	return Pending{}, ErrNotFound
}

func (r *memoryRepository) All(_ context.Context) ([]Pending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pending, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	return out, nil
}
