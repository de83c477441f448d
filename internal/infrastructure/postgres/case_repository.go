package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/casefile"
)

const caseColumns = `id, module, reference, address, description, category, zone, assigned_worker_id, assigned_by_id, created_at, updated_at`

// CaseRepository implements casefile.Repository and casefile.SearchRepository.
type CaseRepository struct {
	pool *pgxpool.Pool
}

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

func (r *CaseRepository) Create(ctx context.Context, c *casefile.Case) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO cases
		(module, reference, address, description, category, zone, assigned_worker_id, assigned_by_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, c.Module, c.Reference, c.Address, c.Description, c.Category, c.Zone, c.AssignedWorkerID, c.AssignedByID, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
}

func (r *CaseRepository) Get(ctx context.Context, id int64) (*casefile.Case, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=$1`, id)
	return scanCase(row)
}

func (r *CaseRepository) GetForUpdate(ctx context.Context, id int64) (*casefile.Case, error) {
	if !inTx(ctx) {
		return nil, errors.New("case row lock requires a transaction")
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=$1 FOR UPDATE`, id)
	return scanCase(row)
}

func (r *CaseRepository) Save(ctx context.Context, c *casefile.Case) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cases
		SET reference=$1, address=$2, description=$3, category=$4, zone=$5, assigned_worker_id=$6, assigned_by_id=$7, updated_at=$8
		WHERE id=$9
	`, c.Reference, c.Address, c.Description, c.Category, c.Zone, c.AssignedWorkerID, c.AssignedByID, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("case", c.ID)
	}
	return nil
}

func (r *CaseRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

// FindByAttributeWindow matches addresses ignoring letter case only and
// treats both window bounds as inclusive.
func (r *CaseRepository) FindByAttributeWindow(ctx context.Context, q casefile.WindowQuery) ([]*casefile.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE module=$1 AND lower(address)=lower($2) AND created_at BETWEEN $3 AND $4`
	args := []interface{}{q.Module, q.Address, q.From, q.To}
	idx := 5
	if q.ExcludeID != 0 {
		query += addWhere(query) + " id<>$" + itoa(idx)
		args = append(args, q.ExcludeID)
		idx++
	}
	if q.Tags.Category != nil {
		query += addWhere(query) + " category=$" + itoa(idx)
		args = append(args, *q.Tags.Category)
		idx++
	}
	if q.Tags.Zone != nil {
		query += addWhere(query) + " zone=$" + itoa(idx)
		args = append(args, *q.Tags.Zone)
	}
	query += " ORDER BY id"

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cases []*casefile.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func scanCase(row pgx.Row) (*casefile.Case, error) {
	var c casefile.Case
	if err := row.Scan(&c.ID, &c.Module, &c.Reference, &c.Address, &c.Description, &c.Category, &c.Zone, &c.AssignedWorkerID, &c.AssignedByID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
