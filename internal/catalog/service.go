package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrBanned indicates the identity was banned at the platform level and is
// excluded from rental.
var ErrBanned = errors.New("identity banned")

// Service manages the number catalog. Mutations fire the onChange hook so the
// availability cache can invalidate.
type Service struct {
	repo     Repository
	onChange func()
	now      func() time.Time
}

// NewService builds a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, onChange: func() {}, now: time.Now}
}

// OnChange registers a hook invoked after every catalog mutation.
func (s *Service) OnChange(fn func()) {
	if fn != nil {
		s.onChange = fn
	}
}

// Get returns the identity record.
func (s *Service) Get(ctx context.Context, id string) (Identity, error) {
	return s.repo.Get(ctx, id)
}

// UpsertInput captures an admin catalog edit.
type UpsertInput struct {
	ID         string
	PriceDay   int64
	PriceWeek  int64
	PriceMonth int64
	Available  bool
}

// Upsert creates or replaces an identity record.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (Identity, error) {
	if input.ID == "" {
		return Identity{}, errors.New("identity id is required")
	}
	identity := Identity{
		ID:         input.ID,
		PriceDay:   input.PriceDay,
		PriceWeek:  input.PriceWeek,
		PriceMonth: input.PriceMonth,
		Available:  input.Available,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, identity); err != nil {
		return Identity{}, err
	}
	s.onChange()
	return identity, nil
}

// SetAvailability soft-enables or soft-disables an identity. Records are never
// destroyed.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) error {
	identity, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	identity.Available = available
	identity.UpdatedAt = s.now().UTC()
	if err := s.repo.Upsert(ctx, identity); err != nil {
		return err
	}
	s.onChange()
	return nil
}

// Ban adds the identity to the banned set and withdraws it from listings.
func (s *Service) Ban(ctx context.Context, id string) error {
	if err := s.repo.Ban(ctx, id); err != nil {
		return err
	}
	if identity, err := s.repo.Get(ctx, id); err == nil && identity.Available {
		identity.Available = false
		identity.UpdatedAt = s.now().UTC()
		if err := s.repo.Upsert(ctx, identity); err != nil {
			return err
		}
	}
	s.onChange()
	return nil
}

// Rentable reports whether the identity may be offered for rent.
func (s *Service) Rentable(ctx context.Context, id string) (Identity, error) {
	identity, err := s.repo.Get(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	if !identity.Available {
		return Identity{}, ErrNotFound
	}
	banned, err := s.repo.IsBanned(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	if banned {
		return Identity{}, ErrBanned
	}
	return identity, nil
}

// List returns all identities in registration order.
func (s *Service) List(ctx context.Context) ([]Identity, error) {
	return s.repo.List(ctx)
}

// IsBanned reports whether the identity is in the banned set.
func (s *Service) IsBanned(ctx context.Context, id string) (bool, error) {
	return s.repo.IsBanned(ctx, id)
}
