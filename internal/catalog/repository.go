package catalog

import (
	"context"
	"errors"
)

// ErrNotFound indicates the identity has never been registered.
var ErrNotFound = errors.New("identity not found")

// Repository persists identity records and the banned set. List returns
// identities in registration order.
type Repository interface {
	Get(ctx context.Context, id string) (Identity, error)
	Upsert(ctx context.Context, identity Identity) error
	List(ctx context.Context) ([]Identity, error)
	Ban(ctx context.Context, id string) error
	IsBanned(ctx context.Context, id string) (bool, error)
}
