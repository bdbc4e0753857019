package rental

import (
	"context"
	"errors"
)

// ErrNotRented indicates no active rental exists for the identity.
var ErrNotRented = errors.New("identity not rented")

// Repository persists the current rental per identity. At most one active
// rental exists per identity; Put replaces any prior record.
type Repository interface {
	Get(ctx context.Context, identityID string) (Rental, error)
	Put(ctx context.Context, rental Rental) error
	Delete(ctx context.Context, identityID string) error
	Active(ctx context.Context) ([]Rental, error)
	ByRenter(ctx context.Context, renterID string) ([]Rental, error)
}
