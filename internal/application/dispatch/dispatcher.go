package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/setting"
	"github.com/querellas/casecore/internal/domain/txn"
	"github.com/querellas/casecore/internal/domain/worker"
)

var tracer = otel.Tracer("github.com/querellas/casecore/internal/application/dispatch")

// AuditRecorder stores audit entries in the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.AuditEntry) error
}

// Dispatcher assigns cases to caseworkers.
type Dispatcher struct {
	tx       txn.Manager
	cursor   *Cursor
	cases    casefile.Repository
	workers  worker.Repository
	recorder AuditRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. The cursor lives in settings.
func NewDispatcher(tx txn.Manager, settings setting.Store, cases casefile.Repository, workers worker.Repository, recorder AuditRecorder, logger zerolog.Logger) *Dispatcher {
	logger = logger.With().Str("service", "dispatch").Logger()
	return &Dispatcher{
		tx:       tx,
		cursor:   NewCursor(settings, logger),
		cases:    cases,
		workers:  workers,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Assignment pairs a case with the worker it went to.
type Assignment struct {
	CaseID   int64 `json:"caseId"`
	WorkerID int64 `json:"workerId"`
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	BatchID      uuid.UUID    `json:"batchId"`
	Assignments  []Assignment `json:"assignments"`
	LastWorkerID int64        `json:"lastWorkerId"`
}

// AssignBatch walks the ring of active caseworkers, ordered by id, starting
// after the worker the cursor points at, giving one case to each worker in
// input order. The batch commits as a whole or not at all.
func (d *Dispatcher) AssignBatch(ctx context.Context, caseIDs []int64, requestedBy *int64) (*BatchResult, error) {
	if len(caseIDs) == 0 {
		return nil, apperror.Validation("at least one case id is required")
	}
	seen := make(map[int64]bool, len(caseIDs))
	for _, id := range caseIDs {
		if seen[id] {
			return nil, apperror.Validation("case %d appears more than once in the batch", id)
		}
		seen[id] = true
	}

	batchID := uuid.New()
	ctx, span := tracer.Start(ctx, "dispatch.AssignBatch", trace.WithAttributes(
		attribute.String("batch_id", batchID.String()),
		attribute.Int("cases", len(caseIDs)),
	))
	defer span.End()

	res := &BatchResult{BatchID: batchID, Assignments: make([]Assignment, 0, len(caseIDs))}
	err := d.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := d.cursor.Lock(ctx); err != nil {
			return err
		}

		ring, err := d.workers.ListActiveCaseworkers(ctx)
		if err != nil {
			return fmt.Errorf("list active caseworkers: %w", err)
		}
		if len(ring) == 0 {
			return apperror.State(apperror.CodeNoWorkersAvailable, "no active caseworkers available")
		}
		sort.Slice(ring, func(i, j int) bool { return ring[i].ID < ring[j].ID })

		idx := -1
		lastID, ok, err := d.cursor.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			idx = Position(ring, lastID)
		}

		if err := d.checkActor(ctx, requestedBy); err != nil {
			return err
		}

		batch := make([]*casefile.Case, 0, len(caseIDs))
		for _, id := range caseIDs {
			c, err := d.cases.GetForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("get case %d: %w", id, err)
			}
			if c == nil {
				return apperror.NotFound("case", id)
			}
			batch = append(batch, c)
		}

		now := d.now()
		for _, c := range batch {
			idx = (idx + 1) % len(ring)
			w := ring[idx]
			if err := d.assign(ctx, c, w, requestedBy, audit.ActionAutoAssigned, now); err != nil {
				return err
			}
			res.Assignments = append(res.Assignments, Assignment{CaseID: c.ID, WorkerID: w.ID})
		}

		res.LastWorkerID = ring[idx].ID
		if err := d.cursor.Store(ctx, res.LastWorkerID); err != nil {
			return err
		}

		cursorEntry := &audit.AuditEntry{
			EntityType: audit.EntityTypeCursor,
			EntityID:   CursorKey,
			Action:     audit.ActionAutoAssigned,
			Actor:      actor(requestedBy),
			NewValues:  map[string]any{"lastWorkerId": res.LastWorkerID, "batchId": batchID.String()},
		}
		if ok {
			cursorEntry.OldValues = map[string]any{"lastWorkerId": lastID}
		}
		return d.recorder.Record(ctx, cursorEntry)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch assignment failed")
		d.logger.Warn().Err(err).Str("batch_id", batchID.String()).Msg("batch assignment rolled back")
		return nil, err
	}

	d.logger.Info().
		Str("batch_id", batchID.String()).
		Int("cases", len(res.Assignments)).
		Int64("last_worker_id", res.LastWorkerID).
		Msg("batch assigned")
	return res, nil
}

// AssignOne gives a case to a specific caseworker without touching the
// round-robin cursor.
func (d *Dispatcher) AssignOne(ctx context.Context, caseID, workerID int64, assignedBy *int64) (*casefile.Case, error) {
	ctx, span := tracer.Start(ctx, "dispatch.AssignOne", trace.WithAttributes(
		attribute.Int64("case_id", caseID),
		attribute.Int64("worker_id", workerID),
	))
	defer span.End()

	var out *casefile.Case
	err := d.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := d.workers.Get(ctx, workerID)
		if err != nil {
			return fmt.Errorf("get worker %d: %w", workerID, err)
		}
		if w == nil {
			return apperror.NotFound("worker", workerID)
		}
		if !w.Assignable() {
			if !w.IsCaseworker() {
				return apperror.Validation("worker %d has role %s, only caseworkers take cases", workerID, w.Role)
			}
			return apperror.State(apperror.CodeWorkerInactive, "worker %d is inactive", workerID)
		}
		if err := d.checkActor(ctx, assignedBy); err != nil {
			return err
		}

		c, err := d.cases.GetForUpdate(ctx, caseID)
		if err != nil {
			return fmt.Errorf("get case %d: %w", caseID, err)
		}
		if c == nil {
			return apperror.NotFound("case", caseID)
		}
		if err := d.assign(ctx, c, w, assignedBy, audit.ActionAssigned, d.now()); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment failed")
		return nil, err
	}

	d.logger.Info().Int64("case_id", caseID).Int64("worker_id", workerID).Msg("case assigned")
	return out, nil
}

func (d *Dispatcher) assign(ctx context.Context, c *casefile.Case, w *worker.Worker, by *int64, action audit.Action, at time.Time) error {
	var previous *int64
	if c.AssignedWorkerID != nil {
		prev := *c.AssignedWorkerID
		previous = &prev
	}

	c.Assign(w.ID, by, at)
	if err := d.cases.Save(ctx, c); err != nil {
		return fmt.Errorf("save case %d: %w", c.ID, err)
	}

	entry := &audit.AuditEntry{
		EntityType: audit.EntityType(c.Module),
		EntityID:   strconv.FormatInt(c.ID, 10),
		Action:     action,
		Actor:      actor(by),
		NewValues:  map[string]any{"assignedWorkerId": w.ID},
	}
	if previous != nil {
		entry.OldValues = map[string]any{"assignedWorkerId": *previous}
	}
	return d.recorder.Record(ctx, entry)
}

func (d *Dispatcher) checkActor(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	w, err := d.workers.Get(ctx, *id)
	if err != nil {
		return fmt.Errorf("get worker %d: %w", *id, err)
	}
	if w == nil {
		return apperror.NotFound("worker", *id)
	}
	return nil
}

func actor(id *int64) string {
	if id == nil {
		return "system"
	}
	return strconv.FormatInt(*id, 10)
}
