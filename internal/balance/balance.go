package balance

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds occurs when a debit would take the renter's credit
	// below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indicates a non-positive credit or debit delta.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Store is a per-renter credit balance with atomic additive deltas. Amounts
// are in minor units. Unseen renters have balance 0.
type Store interface {
	Get(ctx context.Context, renterID string) (int64, error)
	Credit(ctx context.Context, renterID string, amount int64) (int64, error)
	Debit(ctx context.Context, renterID string, amount int64) (int64, error)
}
