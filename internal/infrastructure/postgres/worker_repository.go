package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/worker"
)

const workerColumns = `id, name, email, role, status, zone, created_at, updated_at`

// WorkerRepository implements worker.Repository.
type WorkerRepository struct {
	pool *pgxpool.Pool
}

func NewWorkerRepository(pool *pgxpool.Pool) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

func (r *WorkerRepository) Create(ctx context.Context, w *worker.Worker) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO workers
		(name, email, role, status, zone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, w.Name, w.Email, w.Role, w.Status, w.Zone, w.CreatedAt, w.UpdatedAt).Scan(&w.ID)
	if isUniqueViolation(err) {
		return apperror.Validation("worker email %s already registered", w.Email)
	}
	return err
}

func (r *WorkerRepository) Update(ctx context.Context, w *worker.Worker) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE workers
		SET name=$1, email=$2, role=$3, status=$4, zone=$5, updated_at=$6
		WHERE id=$7
	`, w.Name, w.Email, w.Role, w.Status, w.Zone, w.UpdatedAt, w.ID)
	if isUniqueViolation(err) {
		return apperror.Validation("worker email %s already registered", w.Email)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("worker", w.ID)
	}
	return nil
}

func (r *WorkerRepository) Get(ctx context.Context, id int64) (*worker.Worker, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id=$1`, id)
	return scanWorker(row)
}

func (r *WorkerRepository) ListActiveCaseworkers(ctx context.Context) ([]*worker.Worker, error) {
	active := worker.StatusActive
	role := worker.RoleCaseworker
	return r.List(ctx, worker.Filter{Role: &role, Status: &active}, 0, 0)
}

// List returns matching workers ordered by id. A limit of zero means no limit.
func (r *WorkerRepository) List(ctx context.Context, filter worker.Filter, limit, offset int) ([]*worker.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers`
	args := []interface{}{}
	idx := 1
	if filter.Role != nil {
		query += " WHERE role=$" + itoa(idx)
		args = append(args, *filter.Role)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Zone != nil {
		query += addWhere(query) + " zone=$" + itoa(idx)
		args = append(args, *filter.Zone)
		idx++
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT $" + itoa(idx)
		args = append(args, limit)
		idx++
	}
	if offset > 0 {
		query += " OFFSET $" + itoa(idx)
		args = append(args, offset)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var workers []*worker.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func scanWorker(row pgx.Row) (*worker.Worker, error) {
	var w worker.Worker
	if err := row.Scan(&w.ID, &w.Name, &w.Email, &w.Role, &w.Status, &w.Zone, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
