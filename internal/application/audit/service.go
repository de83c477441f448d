package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/querellas/casecore/internal/domain/audit"
)

// Service records signed audit logs for lifecycle operations
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
	now     func() time.Time
}

// NewService creates a new audit service. An empty signKey disables signing.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
		now:     time.Now,
	}
}

// Record stores an audit log entry in the caller's transaction. The trace id
// is taken from the active span when the entry has none.
func (s *Service) Record(ctx context.Context, entry *audit.AuditEntry) error {
	if entry.TraceID == "" {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			entry.TraceID = sc.TraceID().String()
		}
	}

	auditLog, err := audit.NewAuditLog(entry, s.now())
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(auditLog, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		auditLog.Signature = sig
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", auditLog.AuditID.String()).
		Str("entityType", string(auditLog.EntityType)).
		Str("entityId", auditLog.EntityID).
		Str("action", string(auditLog.Action)).
		Str("actor", auditLog.Actor).
		Str("riskLevel", string(auditLog.RiskLevel)).
		Msg("audit log created")

	if auditLog.RiskLevel == audit.RiskLevelHigh {
		s.logger.Warn().
			Str("auditId", auditLog.AuditID.String()).
			Str("entityType", string(auditLog.EntityType)).
			Str("entityId", auditLog.EntityID).
			Str("action", string(auditLog.Action)).
			Str("actor", auditLog.Actor).
			Msg("high-risk operation detected")
	}

	return nil
}

// VerifyResult reports the integrity of one audit log.
type VerifyResult struct {
	Log      *audit.AuditLog `json:"log"`
	Verified bool            `json:"verified"`
}

// EntityHistory returns the audit trail of an entity, oldest first, with each
// entry's signature checked when a signing key is configured.
func (s *Service) EntityHistory(ctx context.Context, entityType audit.EntityType, entityID string) ([]VerifyResult, error) {
	logs, err := s.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("entityType", string(entityType)).
			Str("entityId", entityID).
			Msg("failed to get entity history")
		return nil, fmt.Errorf("failed to get entity history: %w", err)
	}

	results := make([]VerifyResult, 0, len(logs))
	for _, l := range logs {
		res := VerifyResult{Log: l}
		if len(s.signKey) > 0 {
			ok, err := audit.VerifyAuditLogSignature(l, s.signKey)
			if err != nil {
				return nil, fmt.Errorf("failed to verify audit log %s: %w", l.AuditID, err)
			}
			res.Verified = ok
			if !ok {
				s.logger.Warn().Str("auditId", l.AuditID.String()).Msg("audit log signature mismatch")
			}
		}
		results = append(results, res)
	}
	return results, nil
}
