package worker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/txn"
	domain "github.com/querellas/casecore/internal/domain/worker"
)

// AuditRecorder stores audit entries in the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.AuditEntry) error
}

// Service handles worker management.
type Service struct {
	tx       txn.Manager
	repo     domain.Repository
	recorder AuditRecorder
	logger   zerolog.Logger
}

// NewService creates a worker service.
func NewService(tx txn.Manager, repo domain.Repository, recorder AuditRecorder, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		recorder: recorder,
		logger:   logger.With().Str("service", "worker").Logger(),
	}
}

// RegisterInput defines worker creation input.
type RegisterInput struct {
	Name   string
	Email  string
	Role   domain.Role
	Status domain.Status
	Zone   *string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.Worker, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, apperror.Validation("%v", err)
	}
	role := domain.Role(strings.ToUpper(strings.TrimSpace(string(input.Role))))
	if err := domain.ValidateRole(role); err != nil {
		return nil, apperror.Validation("%v", err)
	}
	status := domain.Status(strings.ToUpper(strings.TrimSpace(string(input.Status))))
	if status == "" {
		status = domain.StatusActive
	}
	if err := domain.ValidateStatus(status); err != nil {
		return nil, apperror.Validation("%v", err)
	}
	var zone *string
	if input.Zone != nil && strings.TrimSpace(*input.Zone) != "" {
		z := strings.ToUpper(strings.TrimSpace(*input.Zone))
		if err := domain.ValidateZone(z); err != nil {
			return nil, apperror.Validation("%v", err)
		}
		zone = &z
	}

	now := time.Now().UTC()
	w := &domain.Worker{
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    status,
		Zone:      zone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, w); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.AuditEntry{
			EntityType: audit.EntityTypeWorker,
			EntityID:   strconv.FormatInt(w.ID, 10),
			Action:     audit.ActionCreated,
			Actor:      "system",
			NewValues:  w,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("worker_id", w.ID).Str("email", w.Email).Str("role", string(w.Role)).Msg("worker registered")
	return w, nil
}

// SetStatus activates or deactivates a worker. Deactivated workers drop out
// of the next dispatch batch.
func (s *Service) SetStatus(ctx context.Context, id int64, status domain.Status, actorID *int64) (*domain.Worker, error) {
	status = domain.Status(strings.ToUpper(strings.TrimSpace(string(status))))
	if err := domain.ValidateStatus(status); err != nil {
		return nil, apperror.Validation("%v", err)
	}

	var out *domain.Worker
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get worker %d: %w", id, err)
		}
		if w == nil {
			return apperror.NotFound("worker", id)
		}
		out = w
		if w.Status == status {
			return nil
		}

		old := w.Status
		w.Status = status
		w.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, w); err != nil {
			return err
		}

		action := audit.ActionActivated
		if status == domain.StatusInactive {
			action = audit.ActionDeactivated
		}
		actor := "system"
		if actorID != nil {
			actor = strconv.FormatInt(*actorID, 10)
		}
		return s.recorder.Record(ctx, &audit.AuditEntry{
			EntityType: audit.EntityTypeWorker,
			EntityID:   strconv.FormatInt(id, 10),
			Action:     action,
			Actor:      actor,
			OldValues:  map[string]string{"status": string(old)},
			NewValues:  map[string]string{"status": string(status)},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("worker_id", id).Str("status", string(out.Status)).Msg("worker status set")
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Worker, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperror.NotFound("worker", id)
	}
	return w, nil
}

// ListCaseworkers returns caseworkers ordered by id, the order dispatch uses.
func (s *Service) ListCaseworkers(ctx context.Context, activeOnly bool) ([]*domain.Worker, error) {
	if activeOnly {
		return s.repo.ListActiveCaseworkers(ctx)
	}
	role := domain.RoleCaseworker
	return s.repo.List(ctx, domain.Filter{Role: &role}, 0, 0)
}

func (s *Service) List(ctx context.Context, filter domain.Filter, limit, offset int) ([]*domain.Worker, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
