package balance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists renter balances in PostgreSQL using single-statement
// atomic increments.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed balance store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the renter's balance, defaulting to 0 for unseen renters.
func (s *PostgresStore) Get(ctx context.Context, renterID string) (int64, error) {
	var amount int64
	err := s.db.QueryRow(ctx, `SELECT amount FROM balances WHERE renter_id = $1`, renterID).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

// Credit atomically adds amount to the renter's balance.
func (s *PostgresStore) Credit(ctx context.Context, renterID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var updated int64
	err := s.db.QueryRow(ctx, `INSERT INTO balances (renter_id, amount) VALUES ($1, $2)
        ON CONFLICT (renter_id) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
        RETURNING amount`, renterID, amount).Scan(&updated)
	return updated, err
}

// Debit atomically subtracts amount, failing without mutation when the
// balance cannot cover it.
func (s *PostgresStore) Debit(ctx context.Context, renterID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var updated int64
	err := s.db.QueryRow(ctx, `UPDATE balances SET amount = amount - $2
        WHERE renter_id = $1 AND amount >= $2
        RETURNING amount`, renterID, amount).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := s.Get(ctx, renterID)
		if getErr != nil {
			return 0, getErr
		}
		return current, ErrInsufficientFunds
	}
	return updated, err
}
