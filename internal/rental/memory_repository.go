package rental

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	rentals map[string]Rental
}

// NewMemoryRepository builds an in-memory rental store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{rentals: make(map[string]Rental)}
}

func (r *memoryRepository) Get(_ context.Context, identityID string) (Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rental, ok := r.rentals[identityID]
	if !ok {
		return Rental{}, ErrNotRented
	}
	return rental, nil
}

func (r *memoryRepository) Put(_ context.Context, rental Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rentals[rental.IdentityID] = rental
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, identityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rentals, identityID)
	return nil
}

func (r *memoryRepository) Active(_ context.Context) ([]Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rental, 0, len(r.rentals))
	for _, rental := range r.rentals {
		out = append(out, rental)
	}
	return out, nil
}

func (r *memoryRepository) ByRenter(_ context.Context, renterID string) ([]Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rental
	for _, rental := range r.rentals {
		if rental.RenterID == renterID {
			out = append(out, rental)
		}
	}
	return out, nil
}
