package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	domain "github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/txn"
)

var tracer = otel.Tracer("github.com/querellas/casecore/internal/application/catalog")

// AuditRecorder stores audit entries in the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.AuditEntry) error
}

// Service owns the per-module state graphs.
type Service struct {
	tx          txn.Manager
	states      domain.Repository
	transitions domain.TransitionRepository
	recorder    AuditRecorder
	logger      zerolog.Logger
}

// NewService creates a catalog service.
func NewService(tx txn.Manager, states domain.Repository, transitions domain.TransitionRepository, logger zerolog.Logger) *Service {
	return &Service{
		tx:          tx,
		states:      states,
		transitions: transitions,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// WithRecorder makes Seed leave a CATALOG audit entry.
func (s *Service) WithRecorder(r AuditRecorder) *Service {
	s.recorder = r
	return s
}

// SeedResult counts what a seed run declared.
type SeedResult struct {
	States      int `json:"states"`
	Transitions int `json:"transitions"`
}

// Seed upserts every state and edge of def in one transaction. Running it
// twice with the same definition changes nothing.
func (s *Service) Seed(ctx context.Context, def domain.Definition) (*SeedResult, error) {
	ctx, span := tracer.Start(ctx, "catalog.Seed")
	defer span.End()

	def.Normalize()
	if err := def.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid definition")
		return nil, err
	}

	res := &SeedResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, m := range def.Modules {
			ids := make(map[string]int64, len(m.States))
			for _, name := range m.States {
				st := &domain.State{Module: m.Module, Name: name}
				if err := s.states.Upsert(ctx, st); err != nil {
					return fmt.Errorf("upsert state %s/%s: %w", m.Module, name, err)
				}
				ids[name] = st.ID
				res.States++
			}
			for _, e := range m.Transitions {
				t := &domain.Transition{Module: m.Module, FromStateID: ids[e.From], ToStateID: ids[e.To]}
				if err := s.transitions.Upsert(ctx, t); err != nil {
					return fmt.Errorf("upsert transition %s/%s->%s: %w", m.Module, e.From, e.To, err)
				}
				res.Transitions++
			}
		}
		if s.recorder == nil {
			return nil
		}
		modules := make([]string, 0, len(def.Modules))
		for _, m := range def.Modules {
			modules = append(modules, string(m.Module))
		}
		return s.recorder.Record(ctx, &audit.AuditEntry{
			EntityType: audit.EntityTypeCatalog,
			EntityID:   strings.Join(modules, ","),
			Action:     audit.ActionSeeded,
			Actor:      "system",
			NewValues:  def,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		return nil, err
	}

	s.logger.Info().Int("states", res.States).Int("transitions", res.Transitions).Msg("catalog seeded")
	return res, nil
}

// ResolveState finds a state by module and name, ignoring case.
func (s *Service) ResolveState(ctx context.Context, module domain.Module, name string) (*domain.State, error) {
	name = domain.NormalizeName(name)
	if name == "" {
		return nil, apperror.Validation("state name is required")
	}
	st, err := s.states.Find(ctx, module, name)
	if err != nil {
		return nil, fmt.Errorf("find state %s/%s: %w", module, name, err)
	}
	if st == nil {
		return nil, apperror.NotFound("state", fmt.Sprintf("%s/%s", module, name))
	}
	return st, nil
}

// Permits reports whether the module's graph has an edge from -> to.
func (s *Service) Permits(ctx context.Context, module domain.Module, from, to *domain.State) (bool, error) {
	ok, err := s.transitions.EdgeExists(ctx, module, from.ID, to.ID)
	if err != nil {
		return false, fmt.Errorf("check transition %s -> %s: %w", from.Name, to.Name, err)
	}
	return ok, nil
}

// ListStates returns the module's states ordered by name.
func (s *Service) ListStates(ctx context.Context, module domain.Module) ([]*domain.State, error) {
	states, err := s.states.ListByModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("list states of %s: %w", module, err)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states, nil
}

// NextStates returns the sorted names reachable from fromName by one edge.
func (s *Service) NextStates(ctx context.Context, module domain.Module, fromName string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "catalog.NextStates", trace.WithAttributes(
		attribute.String("module", string(module)),
		attribute.String("from", fromName),
	))
	defer span.End()

	from, err := s.ResolveState(ctx, module, fromName)
	if err != nil {
		return nil, err
	}
	graph, err := s.Describe(ctx, module)
	if err != nil {
		return nil, err
	}
	next := []string{}
	for _, e := range graph.Transitions {
		if e.From == from.Name {
			next = append(next, e.To)
		}
	}
	sort.Strings(next)
	return next, nil
}

// Describe returns the module's stored graph by state names.
func (s *Service) Describe(ctx context.Context, module domain.Module) (*domain.ModuleDefinition, error) {
	states, err := s.ListStates(ctx, module)
	if err != nil {
		return nil, err
	}
	edges, err := s.transitions.ListByModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("list transitions of %s: %w", module, err)
	}

	names := make(map[int64]string, len(states))
	def := &domain.ModuleDefinition{Module: module, States: make([]string, 0, len(states)), Transitions: []domain.Edge{}}
	for _, st := range states {
		names[st.ID] = st.Name
		def.States = append(def.States, st.Name)
	}
	for _, e := range edges {
		def.Transitions = append(def.Transitions, domain.Edge{From: names[e.FromStateID], To: names[e.ToStateID]})
	}
	sort.Slice(def.Transitions, func(i, j int) bool {
		if def.Transitions[i].From != def.Transitions[j].From {
			return def.Transitions[i].From < def.Transitions[j].From
		}
		return def.Transitions[i].To < def.Transitions[j].To
	})
	return def, nil
}
