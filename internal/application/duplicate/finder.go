package duplicate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/casefile"
)

var tracer = otel.Tracer("github.com/querellas/casecore/internal/application/duplicate")

// Candidate window around the base case's creation time.
const (
	LookBack  = 180 * 24 * time.Hour
	LookAhead = 30 * 24 * time.Hour
)

// Finder lists cases that may describe the same incident as a given case.
type Finder struct {
	cases  casefile.Repository
	search casefile.SearchRepository
	logger zerolog.Logger
}

// NewFinder creates a duplicate finder.
func NewFinder(cases casefile.Repository, search casefile.SearchRepository, logger zerolog.Logger) *Finder {
	return &Finder{
		cases:  cases,
		search: search,
		logger: logger.With().Str("service", "duplicate").Logger(),
	}
}

// Window returns the inclusive creation-time range searched around created.
func Window(created time.Time) (time.Time, time.Time) {
	return created.Add(-LookBack), created.Add(LookAhead)
}

// FindCandidates returns cases of the same module at the same address,
// sharing the base case's category and zone when it has them, created
// inside the window. The result is unordered and never contains the base.
func (f *Finder) FindCandidates(ctx context.Context, caseID int64) ([]*casefile.Case, error) {
	ctx, span := tracer.Start(ctx, "duplicate.FindCandidates", trace.WithAttributes(attribute.Int64("case_id", caseID)))
	defer span.End()

	base, err := f.cases.Get(ctx, caseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load base case failed")
		return nil, fmt.Errorf("get case %d: %w", caseID, err)
	}
	if base == nil {
		return nil, apperror.NotFound("case", caseID)
	}
	if strings.TrimSpace(base.Address) == "" {
		return []*casefile.Case{}, nil
	}

	from, to := Window(base.CreatedAt)
	q := casefile.WindowQuery{
		Module:    base.Module,
		Address:   strings.TrimSpace(base.Address),
		Tags:      casefile.TagFilter{Category: base.Category, Zone: base.Zone},
		From:      from,
		To:        to,
		ExcludeID: base.ID,
	}
	found, err := f.search.FindByAttributeWindow(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("search duplicates of case %d: %w", caseID, err)
	}

	out := make([]*casefile.Case, 0, len(found))
	for _, c := range found {
		if c.ID != base.ID {
			out = append(out, c)
		}
	}

	span.SetAttributes(attribute.Int("candidates", len(out)))
	f.logger.Debug().Int64("case_id", caseID).Int("candidates", len(out)).Msg("duplicate search done")
	return out, nil
}
