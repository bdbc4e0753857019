package rental

import "time"

// Rental is the time-bounded assignment of an identity to a renter.
type Rental struct {
	IdentityID string
	RenterID   string
	RentStart  time.Time
	Hours      int
	// ReminderSent marks that the expiry reminder fired for the current
	// duration epoch. Extending starts a new epoch and clears it.
	ReminderSent bool
}

// End returns the instant the rental expires.
func (r Rental) End() time.Time {
	return r.RentStart.Add(time.Duration(r.Hours) * time.Hour)
}

// RemainingAt computes how much rental time is left at now, never negative.
func (r Rental) RemainingAt(now time.Time) time.Duration {
	remaining := r.End().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
