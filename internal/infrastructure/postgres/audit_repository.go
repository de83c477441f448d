package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/querellas/casecore/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Create(ctx context.Context, entry *audit.AuditLog) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor, old_values, new_values, reason, risk_level, signature, trace_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, entry.AuditID, entry.EntityType, entry.EntityID, entry.Action, entry.Actor, nullJSON(entry.OldValues), nullJSON(entry.NewValues), entry.Reason, entry.RiskLevel, entry.Signature, entry.TraceID, entry.CreatedAt).Scan(&entry.ID)
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, audit_id, entity_type, entity_id, action, actor, old_values, new_values, reason, risk_level, signature, trace_id, created_at
		FROM audit_logs WHERE entity_type=$1 AND entity_id=$2 ORDER BY id
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []*audit.AuditLog
	for rows.Next() {
		log, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func scanAudit(row pgx.Row) (*audit.AuditLog, error) {
	var (
		log     audit.AuditLog
		oldVals []byte
		newVals []byte
	)
	if err := row.Scan(&log.ID, &log.AuditID, &log.EntityType, &log.EntityID, &log.Action, &log.Actor, &oldVals, &newVals, &log.Reason, &log.RiskLevel, &log.Signature, &log.TraceID, &log.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	log.OldValues = oldVals
	log.NewValues = newVals
	return &log, nil
}
