package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores identities in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches an identity record by number.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Identity, error) {
	row := r.db.QueryRow(ctx, `SELECT id, price_day, price_week, price_month, available, updated_at
        FROM identities WHERE id = $1`, id)
	var identity Identity
	var updatedAt time.Time
	if err := row.Scan(&identity.ID, &identity.PriceDay, &identity.PriceWeek, &identity.PriceMonth, &identity.Available, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, err
	}
	identity.UpdatedAt = updatedAt.UTC()
	return identity, nil
}

// Upsert inserts or replaces the identity record, preserving the original
// registration position on conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, identity Identity) error {
	_, err := r.db.Exec(ctx, `INSERT INTO identities (id, price_day, price_week, price_month, available, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            price_day = EXCLUDED.price_day,
            price_week = EXCLUDED.price_week,
            price_month = EXCLUDED.price_month,
            available = EXCLUDED.available,
            updated_at = EXCLUDED.updated_at`,
		identity.ID, identity.PriceDay, identity.PriceWeek, identity.PriceMonth, identity.Available, identity.UpdatedAt.UTC())
	return err
}

// List returns all identities in registration order.
func (r *PostgresRepository) List(ctx context.Context) ([]Identity, error) {
	rows, err := r.db.Query(ctx, `SELECT id, price_day, price_week, price_month, available, updated_at
        FROM identities ORDER BY registered_seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var identity Identity
		var updatedAt time.Time
		if err := rows.Scan(&identity.ID, &identity.PriceDay, &identity.PriceWeek, &identity.PriceMonth, &identity.Available, &updatedAt); err != nil {
			return nil, err
		}
		identity.UpdatedAt = updatedAt.UTC()
		out = append(out, identity)
	}
	return out, rows.Err()
}

// Ban records the identity in the banned set.
func (r *PostgresRepository) Ban(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO banned_identities (id) VALUES ($1)
        ON CONFLICT (id) DO NOTHING`, id)
	return err
}

// IsBanned reports whether the identity is excluded from rental.
func (r *PostgresRepository) IsBanned(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM banned_identities WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
