package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/numrent/numrent/internal/balance"
	"github.com/numrent/numrent/internal/notify"
)

// InvoiceStatus is the hosted invoice lifecycle state reported by the provider.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusExpired   InvoiceStatus = "expired"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceHandle identifies a hosted invoice and where to pay it.
type InvoiceHandle struct {
	ID  string
	URL string
}

// InvoiceAPI connects to the hosted invoice provider.
type InvoiceAPI interface {
	CreateInvoice(ctx context.Context, amount int64, description, reference string) (InvoiceHandle, error)
	GetInvoice(ctx context.Context, id string) (InvoiceStatus, error)
	CancelInvoice(ctx context.Context, id string) error
}

// InvoiceRail reconciles hosted invoices. Each renter holds at most one
// pending invoice; a new top-up request supersedes the previous one, and a
// given invoice id credits the balance at most once.
type InvoiceRail struct {
	api      InvoiceAPI
	pending  PendingRepo
	balances balance.Store
	notifier notify.Notifier
	guard    CheckGuard
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewInvoiceRail builds the hosted invoice rail.
func NewInvoiceRail(api InvoiceAPI, pending PendingRepo, balances balance.Store, notifier notify.Notifier, guard CheckGuard, ttl time.Duration, logger *slog.Logger) *InvoiceRail {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &InvoiceRail{
		api:      api,
		pending:  pending,
		balances: balances,
		notifier: notifier,
		guard:    guard,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *InvoiceRail) lockFor(renterID string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	mu, ok := r.locks[renterID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[renterID] = mu
	}
	return mu
}

// RequestTopUp creates a hosted invoice for the renter, cancelling and
// replacing any invoice already pending for them.
func (r *InvoiceRail) RequestTopUp(ctx context.Context, renterID string, amount int64, msg notify.MessageRef) (InvoiceHandle, error) {
	if amount <= 0 {
		return InvoiceHandle{}, balance.ErrInvalidAmount
	}

	// Supersede-and-create is a read-then-write; without per-renter
	// serialization two concurrent requests both pass the ByRenter check and
	// leave two pending invoices.
	mu := r.lockFor(renterID)
	mu.Lock()
	defer mu.Unlock()

	if prior, err := r.pending.ByRenter(ctx, renterID); err == nil {
		if err := r.api.CancelInvoice(ctx, prior.Ref); err != nil {
			r.logger.Warn("cancel superseded invoice", "invoice_id", prior.Ref, "error", err)
		}
		if err := r.pending.Delete(ctx, prior.Ref); err != nil {
			return InvoiceHandle{}, err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return InvoiceHandle{}, err
	}

	handle, err := r.api.CreateInvoice(ctx, amount, "numrent balance top-up", uuid.NewString())
	if err != nil {
		return InvoiceHandle{}, fmt.Errorf("create invoice: %w", err)
	}

	p := Pending{
		Ref:       handle.ID,
		RenterID:  renterID,
		Amount:    amount,
		Message:   msg,
		CreatedAt: r.now().UTC(),
	}
	if err := r.pending.Put(ctx, p); err != nil {
		return InvoiceHandle{}, err
	}
	return handle, nil
}

// Check performs a user-initiated invoice status check. Unknown invoice ids
// fail with ErrNotFound, guarding against replay of already-credited
// invoices. Concurrent checks for one renter are rejected with
// ErrCheckInProgress.
func (r *InvoiceRail) Check(ctx context.Context, renterID, invoiceID string) (InvoiceStatus, error) {
	ok, err := r.guard.TryAcquire(ctx, renterID)
	if err != nil {
		return "", fmt.Errorf("check guard: %w", err)
	}
	if !ok {
		return "", ErrCheckInProgress
	}
	defer r.guard.Release(ctx, renterID)

	p, err := r.pending.Get(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	if p.RenterID != renterID {
		return "", ErrNotFound
	}

	return r.settle(ctx, p)
}

// Sweep polls every pending invoice and credits the ones the provider reports
// paid. One failing invoice never aborts the sweep for the rest.
func (r *InvoiceRail) Sweep(ctx context.Context) error {
	pending, err := r.pending.All(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		ok, err := r.guard.TryAcquire(ctx, p.RenterID)
		if err != nil || !ok {
			// A user check is in flight for this renter; it will settle.
			continue
		}
		if _, err := r.settle(ctx, p); err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Warn("invoice sweep item", "invoice_id", p.Ref, "error", err)
		}
		r.guard.Release(ctx, p.RenterID)
	}
	return nil
}

// Cleanup cancels and purges invoices older than the rail TTL, freeing the
// renter's one-invoice slot.
func (r *InvoiceRail) Cleanup(ctx context.Context) error {
	pending, err := r.pending.All(ctx)
	if err != nil {
		return err
	}
	cutoff := r.now().Add(-r.ttl)
	for _, p := range pending {
		if p.CreatedAt.After(cutoff) {
			continue
		}
		if err := r.api.CancelInvoice(ctx, p.Ref); err != nil {
			r.logger.Warn("cancel expired invoice", "invoice_id", p.Ref, "error", err)
		}
		if err := r.pending.Delete(ctx, p.Ref); err != nil {
			r.logger.Warn("purge expired invoice", "invoice_id", p.Ref, "error", err)
		}
	}
	return nil
}

func (r *InvoiceRail) settle(ctx context.Context, p Pending) (InvoiceStatus, error) {
	status, err := r.api.GetInvoice(ctx, p.Ref)
	if err != nil {
		return "", fmt.Errorf("get invoice: %w", err)
	}

	switch status {
	case InvoiceStatusPaid:
		if _, err := r.balances.Credit(ctx, p.RenterID, p.Amount); err != nil {
			return "", fmt.Errorf("credit invoice %s: %w", p.Ref, err)
		}
		if err := r.pending.Delete(ctx, p.Ref); err != nil {
			return "", err
		}
		if err := r.notifier.SendToRenter(ctx, p.RenterID, fmt.Sprintf("Payment received, balance topped up by %d.", p.Amount)); err != nil {
			r.logger.Warn("payment notification", "renter_id", p.RenterID, "error", err)
		}
		return InvoiceStatusPaid, nil
	case InvoiceStatusExpired, InvoiceStatusCancelled:
		if err := r.pending.Delete(ctx, p.Ref); err != nil {
			return "", err
		}
		return status, nil
	default:
		return InvoiceStatusPending, nil
	}
}
