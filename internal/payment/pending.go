package payment

import (
	"context"
	"errors"
	"time"

	"github.com/numrent/numrent/internal/notify"
)

var (
	// ErrNotFound indicates the pending reference is unknown. A concurrent
	// check may have already consumed it; callers treat this as a replay
	// guard, not a failure.
	ErrNotFound = errors.New("pending payment not found")

	// ErrCheckInProgress rejects a duplicate status check for a renter whose
	// previous check has not finished.
	ErrCheckInProgress = errors.New("payment check already in progress")
)

// Pending is a payment awaiting confirmation from an external source. Both
// rails share this record shape: Ref is the idempotency key (invoice id or
// order reference token) and Amount is the recorded amount credited on match.
type Pending struct {
	Ref       string
	RenterID  string
	Amount    int64
	Message   notify.MessageRef
	CreatedAt time.Time
}

// PendingRepo stores pending payments for one rail. Each rail owns its own
// instance.
type PendingRepo interface {
	Put(ctx context.Context, p Pending) error
	Get(ctx context.Context, ref string) (Pending, error)
	Delete(ctx context.Context, ref string) error
	ByRenter(ctx context.Context, renterID string) (Pending, error)
	All(ctx context.Context) ([]Pending, error)
}

// Rail is a reconciliation pathway driven by periodic sweeps.
type Rail interface {
	Sweep(ctx context.Context) error
}
