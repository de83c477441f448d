package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querellas/casecore/internal/domain/state"
)

// StateRepository implements state.Repository.
type StateRepository struct {
	pool *pgxpool.Pool
}

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

func (r *StateRepository) Find(ctx context.Context, module state.Module, name string) (*state.State, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, module, name, created_at
		FROM case_states WHERE module=$1 AND name=upper(btrim($2))
	`, module, name)
	return scanState(row)
}

func (r *StateRepository) ListByModule(ctx context.Context, module state.Module) ([]*state.State, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, module, name, created_at
		FROM case_states WHERE module=$1 ORDER BY name
	`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var states []*state.State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func (r *StateRepository) Upsert(ctx context.Context, st *state.State) error {
	st.Name = state.NormalizeName(st.Name)
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO case_states (module, name)
		VALUES ($1,$2)
		ON CONFLICT (module, name) DO UPDATE SET name=EXCLUDED.name
		RETURNING id, created_at
	`, st.Module, st.Name).Scan(&st.ID, &st.CreatedAt)
}

func scanState(row pgx.Row) (*state.State, error) {
	var st state.State
	if err := row.Scan(&st.ID, &st.Module, &st.Name, &st.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// TransitionRepository implements state.TransitionRepository.
type TransitionRepository struct {
	pool *pgxpool.Pool
}

func NewTransitionRepository(pool *pgxpool.Pool) *TransitionRepository {
	return &TransitionRepository{pool: pool}
}

func (r *TransitionRepository) EdgeExists(ctx context.Context, module state.Module, fromID, toID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM state_transitions
			WHERE module=$1 AND from_state_id=$2 AND to_state_id=$3
		)
	`, module, fromID, toID).Scan(&exists)
	return exists, err
}

func (r *TransitionRepository) ListByModule(ctx context.Context, module state.Module) ([]*state.Transition, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, module, from_state_id, to_state_id
		FROM state_transitions WHERE module=$1 ORDER BY id
	`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*state.Transition
	for rows.Next() {
		var t state.Transition
		if err := rows.Scan(&t.ID, &t.Module, &t.FromStateID, &t.ToStateID); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TransitionRepository) Upsert(ctx context.Context, t *state.Transition) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO state_transitions (module, from_state_id, to_state_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (module, from_state_id, to_state_id) DO UPDATE SET module=EXCLUDED.module
		RETURNING id
	`, t.Module, t.FromStateID, t.ToStateID).Scan(&t.ID)
}
