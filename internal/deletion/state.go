package deletion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStateNotFound indicates no deletion state is recorded for the identity.
var ErrStateNotFound = errors.New("deletion state not found")

// State tracks a deletion run per identity until its result is resolved.
// Scheduled deletions stay recorded so the daily finalize sweep can revisit
// them.
type State struct {
	IdentityID string
	Outcome    Outcome
	Reason     string
	Restarts   int
	UpdatedAt  time.Time
}

// StateRepo persists deletion states.
type StateRepo interface {
	Put(ctx context.Context, state State) error
	Delete(ctx context.Context, identityID string) error
	All(ctx context.Context) ([]State, error)
}

type memoryStateRepo struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStateRepo builds an in-memory deletion state store.
func NewMemoryStateRepo() StateRepo {
	return &memoryStateRepo{states: make(map[string]State)}
}

func (r *memoryStateRepo) Put(_ context.Context, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.IdentityID] = state
	return nil
}

func (r *memoryStateRepo) Delete(_ context.Context, identityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, identityID)
	return nil
}

func (r *memoryStateRepo) All(_ context.Context) ([]State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]State, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, state)
	}
	return out, nil
}

// PostgresStateRepo stores deletion states in PostgreSQL.
type PostgresStateRepo struct {
	db *pgxpool.Pool
}

// NewPostgresStateRepo builds a Postgres-backed deletion state store.
func NewPostgresStateRepo(db *pgxpool.Pool) *PostgresStateRepo {
	return &PostgresStateRepo{db: db}
}

// Put inserts or replaces the deletion state for an identity.
func (r *PostgresStateRepo) Put(ctx context.Context, state State) error {
	_, err := r.db.Exec(ctx, `INSERT INTO deletion_states (identity_id, outcome, reason, restarts, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (identity_id) DO UPDATE SET
            outcome = EXCLUDED.outcome,
            reason = EXCLUDED.reason,
            restarts = EXCLUDED.restarts,
            updated_at = EXCLUDED.updated_at`,
		state.IdentityID, string(state.Outcome), state.Reason, state.Restarts, state.UpdatedAt.UTC())
	return err
}

// Delete removes the deletion state for an identity.
func (r *PostgresStateRepo) Delete(ctx context.Context, identityID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM deletion_states WHERE identity_id = $1`, identityID)
	return err
}

// All enumerates recorded deletion states.
func (r *PostgresStateRepo) All(ctx context.Context) ([]State, error) {
	rows, err := r.db.Query(ctx, `SELECT identity_id, outcome, reason, restarts, updated_at FROM deletion_states`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []State
	for rows.Next() {
		var state State
		var outcome string
		var updatedAt time.Time
		if err := rows.Scan(&state.IdentityID, &outcome, &state.Reason, &state.Restarts, &updatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return out, nil
			}
			return nil, err
		}
		state.Outcome = Outcome(outcome)
		state.UpdatedAt = updatedAt.UTC()
		out = append(out, state)
	}
	return out, rows.Err()
}
