package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/numrent/numrent/internal/notify"
	"github.com/numrent/numrent/internal/rental"
)

// Scheduler sweeps active rentals, firing expiry reminders and cancelling
// rentals whose time ran out. Cancellation hands the identity to the deletion
// workflow through the rental service; billing state never blocks on deletion
// success.
type Scheduler struct {
	rentals  *rental.Service
	notifier notify.Notifier
	warning  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler builds the expiry scheduler. Warning is the window before the
// end of a rental in which a single reminder fires per duration epoch.
func NewScheduler(rentals *rental.Service, notifier notify.Notifier, warning time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		rentals:  rentals,
		notifier: notifier,
		warning:  warning,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep visits every active rental once. One failing rental never aborts the
// sweep for the others.
func (s *Scheduler) Sweep(ctx context.Context) error {
	active, err := s.rentals.Active(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, rent := range active {
		if err := s.visit(ctx, rent, now); err != nil {
			s.logger.Warn("expiry sweep item", "identity_id", rent.IdentityID, "error", err)
		}
	}
	return nil
}

func (s *Scheduler) visit(ctx context.Context, rent rental.Rental, now time.Time) error {
	remaining := rent.RemainingAt(now)

	if remaining <= 0 {
		if err := s.rentals.Cancel(ctx, rent.IdentityID); err != nil {
			return fmt.Errorf("cancel expired rental: %w", err)
		}
		text := fmt.Sprintf("Rental of %s has expired.", rent.IdentityID)
		if err := s.notifier.SendToRenter(ctx, rent.RenterID, text); err != nil {
			s.logger.Warn("expiry notification", "renter_id", rent.RenterID, "error", err)
		}
		return nil
	}

	if remaining <= s.warning && !rent.ReminderSent {
		text := fmt.Sprintf("Rental of %s expires in %s. Extend it to keep the number.", rent.IdentityID, remaining.Round(time.Minute))
		if err := s.notifier.SendToRenter(ctx, rent.RenterID, text); err != nil {
			s.logger.Warn("reminder notification", "renter_id", rent.RenterID, "error", err)
		}
		if err := s.rentals.MarkReminded(ctx, rent.IdentityID); err != nil {
			return fmt.Errorf("mark reminded: %w", err)
		}
	}
	return nil
}
