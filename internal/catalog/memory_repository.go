package catalog

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	identities map[string]Identity
	order      []string
	banned     map[string]struct{}
}

// NewMemoryRepository builds an in-memory identity store. Registration order
// is the order of first Upsert.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		identities: make(map[string]Identity),
		banned:     make(map[string]struct{}),
	}
}

func (r *memoryRepository) Get(_ context.Context, id string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}

func (r *memoryRepository) Upsert(_ context.Context, identity Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.identities[identity.ID]; !exists {
		r.order = append(r.order, identity.ID)
	}
	r.identities[identity.ID] = identity
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Identity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.identities[id])
	}
	return out, nil
}

func (r *memoryRepository) Ban(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[id] = struct{}{}
	return nil
}

func (r *memoryRepository) IsBanned(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, banned := r.banned[id]
	return banned, nil
}
