package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querellas/casecore/internal/domain/state"
)

// HistoryRepository implements state.HistoryRepository. Rows are only
// ever inserted.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) LatestStateName(ctx context.Context, module state.Module, caseID int64) (string, bool, error) {
	var name string
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT s.name
		FROM case_history h JOIN case_states s ON s.id = h.state_id
		WHERE h.module=$1 AND h.case_id=$2
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT 1
	`, module, caseID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return name, true, nil
}

func (r *HistoryRepository) Append(ctx context.Context, entry *state.HistoryEntry) error {
	if strings.TrimSpace(entry.Reason) == "" {
		return errors.New("history entry requires a reason")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO case_history
		(entry_id, module, case_id, state_id, reason, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, entry.EntryID, entry.Module, entry.CaseID, entry.StateID, entry.Reason, entry.ActorID, entry.CreatedAt).Scan(&entry.ID)
}

func (r *HistoryRepository) ListDescending(ctx context.Context, module state.Module, caseID int64) ([]*state.HistoryEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT h.id, h.entry_id, h.module, h.case_id, h.state_id, s.name, h.reason, h.actor_id, h.created_at
		FROM case_history h JOIN case_states s ON s.id = h.state_id
		WHERE h.module=$1 AND h.case_id=$2
		ORDER BY h.created_at DESC, h.id DESC
	`, module, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*state.HistoryEntry
	for rows.Next() {
		var e state.HistoryEntry
		if err := rows.Scan(&e.ID, &e.EntryID, &e.Module, &e.CaseID, &e.StateID, &e.StateName, &e.Reason, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// currentStateFrom joins every case to the state of its newest history row.
const currentStateFrom = `
	FROM cases c
	LEFT JOIN LATERAL (
		SELECT s.name
		FROM case_history h JOIN case_states s ON s.id = h.state_id
		WHERE h.module = c.module AND h.case_id = c.id
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT 1
	) cur ON TRUE
	WHERE c.module=$1
	  AND ($2::timestamptz IS NULL OR c.created_at >= $2)
	  AND ($3::timestamptz IS NULL OR c.created_at <= $3)`

func (r *HistoryRepository) ListByCurrentState(ctx context.Context, module state.Module, stateName string, period state.Period) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT c.id`+currentStateFrom+` AND cur.name = upper(btrim($4)) ORDER BY c.id`,
		module, period.From, period.To, stateName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *HistoryRepository) CountByCurrentState(ctx context.Context, module state.Module, period state.Period) (map[string]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT COALESCE(cur.name, $4), count(*)`+currentStateFrom+` GROUP BY 1`,
		module, period.From, period.To, state.NoStateName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int64{}
	for rows.Next() {
		var (
			name string
			n    int64
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
