package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/txn"
)

var tracer = otel.Tracer("github.com/querellas/casecore/internal/application/lifecycle")

// OpeningReason is recorded on the first history entry of every case.
const OpeningReason = "opened"

// Catalog is the part of the state catalog the engine needs.
type Catalog interface {
	ResolveState(ctx context.Context, module state.Module, name string) (*state.State, error)
	Permits(ctx context.Context, module state.Module, from, to *state.State) (bool, error)
	NextStates(ctx context.Context, module state.Module, fromName string) ([]string, error)
}

// AuditRecorder stores audit entries in the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.AuditEntry) error
}

// Service moves cases through their module's state graph.
type Service struct {
	tx       txn.Manager
	catalog  Catalog
	cases    casefile.Repository
	history  state.HistoryRepository
	recorder AuditRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a lifecycle service.
func NewService(tx txn.Manager, catalog Catalog, cases casefile.Repository, history state.HistoryRepository, recorder AuditRecorder, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		catalog:  catalog,
		cases:    cases,
		history:  history,
		recorder: recorder,
		logger:   logger.With().Str("service", "lifecycle").Logger(),
		now:      time.Now,
	}
}

// Result describes the outcome of opening a case or changing its state.
type Result struct {
	Case    *casefile.Case      `json:"case"`
	State   string              `json:"state"`
	Changed bool                `json:"changed"`
	Entry   *state.HistoryEntry `json:"entry,omitempty"`
}

// OpenInput defines case creation input.
type OpenInput struct {
	Module      state.Module
	Reference   string
	Address     string
	Description string
	Category    *string
	Zone        *string
	ActorID     *int64
}

// OpenCase creates a case and its initial history entry atomically.
func (s *Service) OpenCase(ctx context.Context, input OpenInput) (*Result, error) {
	module, err := parseModule(input.Module)
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, apperror.Validation("address is required")
	}

	ctx, span := tracer.Start(ctx, "lifecycle.OpenCase", trace.WithAttributes(attribute.String("module", string(module))))
	defer span.End()

	var res *Result
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		initial, err := s.catalog.ResolveState(ctx, module, state.InitialStateName)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.State(apperror.CodeMissingInitialState,
					"module %s has no initial state %s in the catalog", module, state.InitialStateName)
			}
			return err
		}

		now := s.now().UTC()
		c := &casefile.Case{
			Module:      module,
			Reference:   strings.TrimSpace(input.Reference),
			Address:     address,
			Description: strings.TrimSpace(input.Description),
			Category:    trimmed(input.Category),
			Zone:        trimmed(input.Zone),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.cases.Create(ctx, c); err != nil {
			return fmt.Errorf("create case: %w", err)
		}
		if c.Reference == "" {
			c.Reference = Reference(module, now, c.ID)
			if err := s.cases.Save(ctx, c); err != nil {
				return fmt.Errorf("save case reference: %w", err)
			}
		}

		entry := state.NewHistoryEntry(c.ID, initial, OpeningReason, input.ActorID, now)
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("append initial history: %w", err)
		}

		if err := s.recorder.Record(ctx, &audit.AuditEntry{
			EntityType: audit.EntityType(module),
			EntityID:   strconv.FormatInt(c.ID, 10),
			Action:     audit.ActionCreated,
			Actor:      actor(input.ActorID),
			NewValues:  c,
			Reason:     OpeningReason,
		}); err != nil {
			return err
		}

		res = &Result{Case: c, State: initial.Name, Changed: true, Entry: entry}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open case failed")
		return nil, err
	}

	s.logger.Info().
		Int64("case_id", res.Case.ID).
		Str("module", string(module)).
		Str("reference", res.Case.Reference).
		Msg("case opened")
	return res, nil
}

// ChangeState moves a case to target. Asking for the state the case is
// already in succeeds without writing history.
func (s *Service) ChangeState(ctx context.Context, module state.Module, caseID int64, target, reason string, actorID *int64) (*Result, error) {
	module, err := parseModule(module)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("reason is required")
	}
	if strings.TrimSpace(target) == "" {
		return nil, apperror.Validation("target state is required")
	}

	ctx, span := tracer.Start(ctx, "lifecycle.ChangeState", trace.WithAttributes(
		attribute.String("module", string(module)),
		attribute.Int64("case_id", caseID),
		attribute.String("target", target),
	))
	defer span.End()

	var res *Result
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.lockCase(ctx, module, caseID)
		if err != nil {
			return err
		}
		to, err := s.catalog.ResolveState(ctx, module, target)
		if err != nil {
			return err
		}
		current, err := s.latest(ctx, module, caseID)
		if err != nil {
			return err
		}

		if state.SameName(current, to.Name) {
			res = &Result{Case: c, State: to.Name, Changed: false}
			return s.recorder.Record(ctx, &audit.AuditEntry{
				EntityType: audit.EntityType(module),
				EntityID:   strconv.FormatInt(caseID, 10),
				Action:     audit.ActionStateResubmitted,
				Actor:      actor(actorID),
				NewValues:  map[string]string{"state": to.Name},
				Reason:     reason,
			})
		}

		from, err := s.catalog.ResolveState(ctx, module, current)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.State(apperror.CodeCurrentStateUnknown,
					"case %d is in state %s which is not in the %s catalog", caseID, current, module)
			}
			return err
		}
		ok, err := s.catalog.Permits(ctx, module, from, to)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.TransitionNotPermitted(string(module), from.Name, to.Name)
		}

		now := s.now().UTC()
		entry := state.NewHistoryEntry(caseID, to, reason, actorID, now)
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		c.Touch(now)
		if err := s.cases.Save(ctx, c); err != nil {
			return fmt.Errorf("save case: %w", err)
		}
		if err := s.recorder.Record(ctx, &audit.AuditEntry{
			EntityType: audit.EntityType(module),
			EntityID:   strconv.FormatInt(caseID, 10),
			Action:     audit.ActionStateChanged,
			Actor:      actor(actorID),
			OldValues:  map[string]string{"state": from.Name},
			NewValues:  map[string]string{"state": to.Name},
			Reason:     reason,
		}); err != nil {
			return err
		}

		res = &Result{Case: c, State: to.Name, Changed: true, Entry: entry}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "change state failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("changed", res.Changed))
	if res.Changed {
		s.logger.Info().
			Int64("case_id", caseID).
			Str("module", string(module)).
			Str("state", res.State).
			Msg("case state changed")
	} else {
		s.logger.Debug().
			Int64("case_id", caseID).
			Str("module", string(module)).
			Str("state", res.State).
			Msg("state resubmitted, history unchanged")
	}
	return res, nil
}

// CurrentState returns the state of the case's newest history entry.
func (s *Service) CurrentState(ctx context.Context, module state.Module, caseID int64) (string, error) {
	module, err := parseModule(module)
	if err != nil {
		return "", err
	}
	if _, err := s.loadCase(ctx, module, caseID); err != nil {
		return "", err
	}
	return s.latest(ctx, module, caseID)
}

// History returns the case's history, newest first.
func (s *Service) History(ctx context.Context, module state.Module, caseID int64) ([]*state.HistoryEntry, error) {
	module, err := parseModule(module)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadCase(ctx, module, caseID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListDescending(ctx, module, caseID)
	if err != nil {
		return nil, fmt.Errorf("list history of case %d: %w", caseID, err)
	}
	return entries, nil
}

// NextStates lists the states the case may move to from where it is now.
func (s *Service) NextStates(ctx context.Context, module state.Module, caseID int64) ([]string, error) {
	module, err := parseModule(module)
	if err != nil {
		return nil, err
	}
	current, err := s.CurrentState(ctx, module, caseID)
	if err != nil {
		return nil, err
	}
	return s.catalog.NextStates(ctx, module, current)
}

// ListByState returns the cases created in period whose current state is
// stateName, ordered by id. Older entries in that state do not count.
func (s *Service) ListByState(ctx context.Context, module state.Module, stateName string, period state.Period) ([]*casefile.Case, error) {
	module, err := parseModule(module)
	if err != nil {
		return nil, err
	}
	if err := validPeriod(period); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "lifecycle.ListByState", trace.WithAttributes(
		attribute.String("module", string(module)),
		attribute.String("state", stateName),
	))
	defer span.End()

	st, err := s.catalog.ResolveState(ctx, module, stateName)
	if err != nil {
		return nil, err
	}
	ids, err := s.history.ListByCurrentState(ctx, module, st.Name, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list by state failed")
		return nil, fmt.Errorf("list %s cases in %s: %w", module, st.Name, err)
	}

	out := make([]*casefile.Case, 0, len(ids))
	for _, id := range ids {
		c, err := s.cases.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get case %d: %w", id, err)
		}
		if c != nil {
			out = append(out, c)
		}
	}
	span.SetAttributes(attribute.Int("cases", len(out)))
	return out, nil
}

// Summary counts a module's cases by current state.
type Summary struct {
	Module  state.Module     `json:"module"`
	Total   int64            `json:"total"`
	ByState map[string]int64 `json:"byState"`
}

// Summarize counts the cases created in period by their current state.
func (s *Service) Summarize(ctx context.Context, module state.Module, period state.Period) (*Summary, error) {
	module, err := parseModule(module)
	if err != nil {
		return nil, err
	}
	if err := validPeriod(period); err != nil {
		return nil, err
	}
	counts, err := s.history.CountByCurrentState(ctx, module, period)
	if err != nil {
		return nil, fmt.Errorf("count %s cases by state: %w", module, err)
	}
	sum := &Summary{Module: module, ByState: counts}
	for name, n := range counts {
		if name == state.NoStateName {
			s.logger.Warn().Str("module", string(module)).Int64("cases", n).Msg("cases without history")
		}
		sum.Total += n
	}
	return sum, nil
}

func (s *Service) loadCase(ctx context.Context, module state.Module, caseID int64) (*casefile.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case %d: %w", caseID, err)
	}
	if c == nil || c.Module != module {
		return nil, apperror.NotFound("case", caseID)
	}
	return c, nil
}

// lockCase loads the case and holds it until the transaction ends, so the
// current state read below cannot change before the new entry is appended.
func (s *Service) lockCase(ctx context.Context, module state.Module, caseID int64) (*casefile.Case, error) {
	c, err := s.cases.GetForUpdate(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("lock case %d: %w", caseID, err)
	}
	if c == nil || c.Module != module {
		return nil, apperror.NotFound("case", caseID)
	}
	return c, nil
}

func (s *Service) latest(ctx context.Context, module state.Module, caseID int64) (string, error) {
	name, ok, err := s.history.LatestStateName(ctx, module, caseID)
	if err != nil {
		return "", fmt.Errorf("latest state of case %d: %w", caseID, err)
	}
	if !ok {
		s.logger.Error().
			Int64("case_id", caseID).
			Str("module", string(module)).
			Msg("case has no history entries")
		return "", apperror.State(apperror.CodeCaseWithoutHistory, "case %d has no history", caseID)
	}
	return name, nil
}

// Reference builds the human-facing case number, e.g. COMPLAINT-2025-000042.
func Reference(module state.Module, at time.Time, id int64) string {
	return fmt.Sprintf("%s-%d-%06d", module, at.Year(), id)
}

func parseModule(module state.Module) (state.Module, error) {
	m, err := state.ParseModule(string(module))
	if err != nil {
		return "", apperror.Validation("%v", err)
	}
	return m, nil
}

func validPeriod(p state.Period) error {
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return apperror.Validation("period ends before it starts")
	}
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func actor(id *int64) string {
	if id == nil {
		return "system"
	}
	return strconv.FormatInt(*id, 10)
}
