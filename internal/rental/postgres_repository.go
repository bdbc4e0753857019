package rental

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores rentals in PostgreSQL keyed by identity.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed rental repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches the active rental for an identity.
func (r *PostgresRepository) Get(ctx context.Context, identityID string) (Rental, error) {
	row := r.db.QueryRow(ctx, `SELECT identity_id, renter_id, rent_start, hours, reminder_sent
        FROM rentals WHERE identity_id = $1`, identityID)
	return scanRental(row)
}

// Put inserts or replaces the rental for the identity.
func (r *PostgresRepository) Put(ctx context.Context, rental Rental) error {
	_, err := r.db.Exec(ctx, `INSERT INTO rentals (identity_id, renter_id, rent_start, hours, reminder_sent)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (identity_id) DO UPDATE SET
            renter_id = EXCLUDED.renter_id,
            rent_start = EXCLUDED.rent_start,
            hours = EXCLUDED.hours,
            reminder_sent = EXCLUDED.reminder_sent`,
		rental.IdentityID, rental.RenterID, rental.RentStart.UTC(), rental.Hours, rental.ReminderSent)
	return err
}

// Delete removes the rental record, if any.
func (r *PostgresRepository) Delete(ctx context.Context, identityID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rentals WHERE identity_id = $1`, identityID)
	return err
}

// Active enumerates all current rentals.
func (r *PostgresRepository) Active(ctx context.Context) ([]Rental, error) {
	rows, err := r.db.Query(ctx, `SELECT identity_id, renter_id, rent_start, hours, reminder_sent FROM rentals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

// ByRenter lists all rentals held by one renter.
func (r *PostgresRepository) ByRenter(ctx context.Context, renterID string) ([]Rental, error) {
	rows, err := r.db.Query(ctx, `SELECT identity_id, renter_id, rent_start, hours, reminder_sent
        FROM rentals WHERE renter_id = $1`, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

func scanRental(row pgx.Row) (Rental, error) {
	var rental Rental
	var start time.Time
	if err := row.Scan(&rental.IdentityID, &rental.RenterID, &start, &rental.Hours, &rental.ReminderSent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rental{}, ErrNotRented
		}
		return Rental{}, err
	}
	rental.RentStart = start.UTC()
	return rental, nil
}

func collectRentals(rows pgx.Rows) ([]Rental, error) {
	var out []Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rental)
	}
	return out, rows.Err()
}
