package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numrent/numrent/internal/notify"
)

// PostgresRepository stores pending payments in PostgreSQL. The table name is
// injected so each rail keeps its own pending set.
type PostgresRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresRepository builds a Postgres-backed pending payment repository
// over the named table.
func NewPostgresRepository(db *pgxpool.Pool, table string) *PostgresRepository {
	return &PostgresRepository{db: db, table: table}
}

// Put inserts or replaces the pending record.
func (r *PostgresRepository) Put(ctx context.Context, p Pending) error {
	q := fmt.Sprintf(`INSERT INTO %s (ref, renter_id, amount, chat_id, message_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (ref) DO UPDATE SET
            renter_id = EXCLUDED.renter_id,
            amount = EXCLUDED.amount,
            chat_id = EXCLUDED.chat_id,
            message_id = EXCLUDED.message_id,
            created_at = EXCLUDED.created_at`, r.table)
	_, err := r.db.Exec(ctx, q, p.Ref, p.RenterID, p.Amount, p.Message.ChatID, p.Message.MessageID, p.CreatedAt.UTC())
	return err
}

// Get fetches a pending record by reference.
func (r *PostgresRepository) Get(ctx context.Context, ref string) (Pending, error) {
	q := fmt.Sprintf(`SELECT ref, renter_id, amount, chat_id, message_id, created_at FROM %s WHERE ref = $1`, r.table)
	return scanPending(r.db.QueryRow(ctx, q, ref))
}

// Delete removes a pending record.
func (r *PostgresRepository) Delete(ctx context.Context, ref string) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE ref = $1`, r.table), ref)
	return err
}

// ByRenter fetches the renter's pending record, if any.
func (r *PostgresRepository) ByRenter(ctx context.Context, renterID string) (Pending, error) {
	q := fmt.Sprintf(`SELECT ref, renter_id, amount, chat_id, message_id, created_at
        FROM %s WHERE renter_id = $1 ORDER BY created_at DESC LIMIT 1`, r.table)
	return scanPending(r.db.QueryRow(ctx, q, renterID))
}

// All enumerates every pending record.
func (r *PostgresRepository) All(ctx context.Context) ([]Pending, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT ref, renter_id, amount, chat_id, message_id, created_at FROM %s`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPending(row pgx.Row) (Pending, error) {
	var p Pending
	var msg notify.MessageRef
	var createdAt time.Time
	if err := row.Scan(&p.Ref, &p.RenterID, &p.Amount, &msg.ChatID, &msg.MessageID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pending{}, ErrNotFound
		}
		return Pending{}, err
	}
	p.Message = msg
	p.CreatedAt = createdAt.UTC()
	return p, nil
}
