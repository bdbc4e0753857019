package rental

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrConflict indicates the identity is already held by a different renter.
	ErrConflict = errors.New("identity rented by another renter")

	// ErrOwnershipMismatch indicates a transfer from someone who does not hold
	// the rental.
	ErrOwnershipMismatch = errors.New("rental ownership mismatch")
)

// DeletionEnqueuer hands a terminated identity to the account deletion
// workflow. Failure to enqueue never rolls back the cancellation.
type DeletionEnqueuer interface {
	Enqueue(identityID string)
}

// Service owns rental lifecycle operations. Extend is an atomic
// read-modify-write per identity, serialized by a per-key mutex so concurrent
// renewals never lose an update.
type Service struct {
	repo    Repository
	deleter DeletionEnqueuer

	onChange func()
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService builds a rental service.
func NewService(repo Repository, deleter DeletionEnqueuer) *Service {
	return &Service{
		repo:     repo,
		deleter:  deleter,
		onChange: func() {},
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// OnChange registers a hook invoked after every ledger mutation.
func (s *Service) OnChange(fn func()) {
	if fn != nil {
		s.onChange = fn
	}
}

func (s *Service) lockFor(identityID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[identityID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[identityID] = mu
	}
	return mu
}

// Get returns the active rental for an identity.
func (s *Service) Get(ctx context.Context, identityID string) (Rental, error) {
	return s.repo.Get(ctx, identityID)
}

// Active enumerates all current rentals.
func (s *Service) Active(ctx context.Context) ([]Rental, error) {
	return s.repo.Active(ctx)
}

// ByRenter lists the renter's current rentals.
func (s *Service) ByRenter(ctx context.Context, renterID string) ([]Rental, error) {
	return s.repo.ByRenter(ctx, renterID)
}

// Assign rents the identity to the renter for the given number of hours. With
// extend set the rental keeps its start time and gains hours on top of the
// remaining duration; otherwise an existing rental held by a different renter
// fails with ErrConflict.
func (s *Service) Assign(ctx context.Context, identityID, renterID string, hours int, extend bool) (Rental, error) {
	if hours <= 0 {
		return Rental{}, errors.New("rental hours must be positive")
	}

	mu := s.lockFor(identityID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.repo.Get(ctx, identityID)
	switch {
	case err == nil && extend:
		if existing.RenterID != renterID {
			return Rental{}, ErrConflict
		}
		// Keeping the original start and growing the hour count makes the
		// new duration exactly remaining-at-read plus the added hours. An
		// expired-but-unswept rental has zero remaining, so it restarts.
		if now := s.now().UTC(); now.After(existing.End()) {
			existing.RentStart = now
			existing.Hours = hours
		} else {
			existing.Hours += hours
		}
		existing.ReminderSent = false
		if err := s.repo.Put(ctx, existing); err != nil {
			return Rental{}, err
		}
		s.onChange()
		return existing, nil
	case err == nil && existing.RenterID != renterID:
		return Rental{}, ErrConflict
	case err != nil && !errors.Is(err, ErrNotRented):
		return Rental{}, err
	case extend:
		return Rental{}, ErrNotRented
	}

	rental := Rental{
		IdentityID: identityID,
		RenterID:   renterID,
		RentStart:  s.now().UTC(),
		Hours:      hours,
	}
	if err := s.repo.Put(ctx, rental); err != nil {
		return Rental{}, err
	}
	s.onChange()
	return rental, nil
}

// Cancel clears the rental and hands the identity to the deletion workflow.
// Enqueue failure does not roll back the cancellation.
func (s *Service) Cancel(ctx context.Context, identityID string) error {
	mu := s.lockFor(identityID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.repo.Get(ctx, identityID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, identityID); err != nil {
		return err
	}
	s.onChange()
	if s.deleter != nil {
		s.deleter.Enqueue(identityID)
	}
	return nil
}

// Transfer reassigns the rental to another renter, preserving the remaining
// time. The caller must currently hold the rental.
func (s *Service) Transfer(ctx context.Context, identityID, fromRenter, toRenter string) (Rental, error) {
	mu := s.lockFor(identityID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.repo.Get(ctx, identityID)
	if err != nil {
		return Rental{}, err
	}
	if existing.RenterID != fromRenter {
		return Rental{}, ErrOwnershipMismatch
	}
	existing.RenterID = toRenter
	if err := s.repo.Put(ctx, existing); err != nil {
		return Rental{}, err
	}
	s.onChange()
	return existing, nil
}

// MarkReminded records that the expiry reminder fired for the rental's current
// duration epoch.
func (s *Service) MarkReminded(ctx context.Context, identityID string) error {
	mu := s.lockFor(identityID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.repo.Get(ctx, identityID)
	if err != nil {
		return err
	}
	existing.ReminderSent = true
	return s.repo.Put(ctx, existing)
}

// Remaining reports the rental time left for an identity, never negative.
func (s *Service) Remaining(ctx context.Context, identityID string) (time.Duration, error) {
	rental, err := s.repo.Get(ctx, identityID)
	if err != nil {
		return 0, err
	}
	return rental.RemainingAt(s.now()), nil
}
