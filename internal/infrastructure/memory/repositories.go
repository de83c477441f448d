package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/setting"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/txn"
	"github.com/querellas/casecore/internal/domain/worker"
)

var (
	_ txn.Manager                = (*Store)(nil)
	_ state.Repository           = (*StateRepository)(nil)
	_ state.TransitionRepository = (*TransitionRepository)(nil)
	_ state.HistoryRepository    = (*HistoryRepository)(nil)
	_ casefile.Repository        = (*CaseRepository)(nil)
	_ casefile.SearchRepository  = (*CaseRepository)(nil)
	_ worker.Repository          = (*WorkerRepository)(nil)
	_ setting.Store              = (*SettingStore)(nil)
	_ audit.Repository           = (*AuditRepository)(nil)
)

// StateRepository implements state.Repository.
type StateRepository struct{ s *Store }

func (r *StateRepository) Find(ctx context.Context, module state.Module, name string) (*state.State, error) {
	var out *state.State
	err := r.s.read(ctx, func(d *dataset) error {
		for _, st := range d.states {
			if st.Module == module && state.SameName(st.Name, name) {
				cp := *st
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *StateRepository) ListByModule(ctx context.Context, module state.Module) ([]*state.State, error) {
	var out []*state.State
	err := r.s.read(ctx, func(d *dataset) error {
		for _, st := range d.states {
			if st.Module == module {
				cp := *st
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *StateRepository) Upsert(ctx context.Context, st *state.State) error {
	st.Name = state.NormalizeName(st.Name)
	return r.s.write(ctx, func(d *dataset) error {
		for _, existing := range d.states {
			if existing.Module == st.Module && existing.Name == st.Name {
				st.ID = existing.ID
				st.CreatedAt = existing.CreatedAt
				return nil
			}
		}
		st.ID = d.next("states")
		st.CreatedAt = r.s.now().UTC()
		cp := *st
		d.states[st.ID] = &cp
		return nil
	})
}

// TransitionRepository implements state.TransitionRepository.
type TransitionRepository struct{ s *Store }

func (r *TransitionRepository) EdgeExists(ctx context.Context, module state.Module, fromID, toID int64) (bool, error) {
	found := false
	err := r.s.read(ctx, func(d *dataset) error {
		for _, t := range d.transitions {
			if t.Module == module && t.FromStateID == fromID && t.ToStateID == toID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *TransitionRepository) ListByModule(ctx context.Context, module state.Module) ([]*state.Transition, error) {
	var out []*state.Transition
	err := r.s.read(ctx, func(d *dataset) error {
		for _, t := range d.transitions {
			if t.Module == module {
				cp := *t
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *TransitionRepository) Upsert(ctx context.Context, t *state.Transition) error {
	return r.s.write(ctx, func(d *dataset) error {
		for _, existing := range d.transitions {
			if existing.Module == t.Module && existing.FromStateID == t.FromStateID && existing.ToStateID == t.ToStateID {
				t.ID = existing.ID
				return nil
			}
		}
		t.ID = d.next("transitions")
		cp := *t
		d.transitions[t.ID] = &cp
		return nil
	})
}

// HistoryRepository implements state.HistoryRepository with an append-only
// arena and a per-case index of the newest entry.
type HistoryRepository struct{ s *Store }

func (r *HistoryRepository) LatestStateName(ctx context.Context, module state.Module, caseID int64) (string, bool, error) {
	var (
		name string
		ok   bool
	)
	err := r.s.read(ctx, func(d *dataset) error {
		if e := d.latest[historyKey{module: module, caseID: caseID}]; e != nil {
			name, ok = e.StateName, true
		}
		return nil
	})
	return name, ok, err
}

func (r *HistoryRepository) Append(ctx context.Context, entry *state.HistoryEntry) error {
	if strings.TrimSpace(entry.Reason) == "" {
		return errors.New("history entry requires a reason")
	}
	return r.s.write(ctx, func(d *dataset) error {
		entry.ID = d.next("history")
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = r.s.now().UTC()
		}
		stored := copyEntry(entry)
		d.history = append(d.history, stored)

		key := historyKey{module: entry.Module, caseID: entry.CaseID}
		if cur := d.latest[key]; cur == nil || stored.Newer(cur) {
			d.latest[key] = stored
		}
		return nil
	})
}

func (r *HistoryRepository) ListDescending(ctx context.Context, module state.Module, caseID int64) ([]*state.HistoryEntry, error) {
	var out []*state.HistoryEntry
	err := r.s.read(ctx, func(d *dataset) error {
		for _, e := range d.history {
			if e.Module == module && e.CaseID == caseID {
				out = append(out, copyEntry(e))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Newer(out[j]) })
	return out, err
}

func (r *HistoryRepository) ListByCurrentState(ctx context.Context, module state.Module, stateName string, period state.Period) ([]int64, error) {
	var ids []int64
	err := r.s.read(ctx, func(d *dataset) error {
		for id, c := range d.cases {
			if c.Module != module || !period.Contains(c.CreatedAt) {
				continue
			}
			if e := d.latest[historyKey{module: module, caseID: id}]; e != nil && state.SameName(e.StateName, stateName) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r *HistoryRepository) CountByCurrentState(ctx context.Context, module state.Module, period state.Period) (map[string]int64, error) {
	counts := map[string]int64{}
	err := r.s.read(ctx, func(d *dataset) error {
		for id, c := range d.cases {
			if c.Module != module || !period.Contains(c.CreatedAt) {
				continue
			}
			name := state.NoStateName
			if e := d.latest[historyKey{module: module, caseID: id}]; e != nil {
				name = e.StateName
			}
			counts[name]++
		}
		return nil
	})
	return counts, err
}

// CaseRepository implements casefile.Repository and casefile.SearchRepository.
type CaseRepository struct{ s *Store }

func (r *CaseRepository) Create(ctx context.Context, c *casefile.Case) error {
	return r.s.write(ctx, func(d *dataset) error {
		c.ID = d.next("cases")
		now := r.s.now().UTC()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		d.cases[c.ID] = copyCase(c)
		return nil
	})
}

func (r *CaseRepository) Get(ctx context.Context, id int64) (*casefile.Case, error) {
	var out *casefile.Case
	err := r.s.read(ctx, func(d *dataset) error {
		if c, ok := d.cases[id]; ok {
			out = copyCase(c)
		}
		return nil
	})
	return out, err
}

// GetForUpdate is Get; the caller's transaction already holds the store.
func (r *CaseRepository) GetForUpdate(ctx context.Context, id int64) (*casefile.Case, error) {
	return r.Get(ctx, id)
}

func (r *CaseRepository) Save(ctx context.Context, c *casefile.Case) error {
	return r.s.write(ctx, func(d *dataset) error {
		if _, ok := d.cases[c.ID]; !ok {
			return apperror.NotFound("case", c.ID)
		}
		d.cases[c.ID] = copyCase(c)
		return nil
	})
}

func (r *CaseRepository) Exists(ctx context.Context, id int64) (bool, error) {
	found := false
	err := r.s.read(ctx, func(d *dataset) error {
		_, found = d.cases[id]
		return nil
	})
	return found, err
}

func (r *CaseRepository) FindByAttributeWindow(ctx context.Context, q casefile.WindowQuery) ([]*casefile.Case, error) {
	var out []*casefile.Case
	err := r.s.read(ctx, func(d *dataset) error {
		for _, c := range d.cases {
			if q.Matches(c) {
				out = append(out, copyCase(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// WorkerRepository implements worker.Repository.
type WorkerRepository struct{ s *Store }

func (r *WorkerRepository) Create(ctx context.Context, w *worker.Worker) error {
	return r.s.write(ctx, func(d *dataset) error {
		for _, existing := range d.workers {
			if existing.Email == w.Email {
				return apperror.Validation("worker email %s already registered", w.Email)
			}
		}
		w.ID = d.next("workers")
		d.workers[w.ID] = copyWorker(w)
		return nil
	})
}

func (r *WorkerRepository) Update(ctx context.Context, w *worker.Worker) error {
	return r.s.write(ctx, func(d *dataset) error {
		if _, ok := d.workers[w.ID]; !ok {
			return apperror.NotFound("worker", w.ID)
		}
		d.workers[w.ID] = copyWorker(w)
		return nil
	})
}

func (r *WorkerRepository) Get(ctx context.Context, id int64) (*worker.Worker, error) {
	var out *worker.Worker
	err := r.s.read(ctx, func(d *dataset) error {
		if w, ok := d.workers[id]; ok {
			out = copyWorker(w)
		}
		return nil
	})
	return out, err
}

func (r *WorkerRepository) ListActiveCaseworkers(ctx context.Context) ([]*worker.Worker, error) {
	active := worker.StatusActive
	role := worker.RoleCaseworker
	return r.List(ctx, worker.Filter{Role: &role, Status: &active}, 0, 0)
}

// List returns matching workers ordered by id. A limit of zero means no limit.
func (r *WorkerRepository) List(ctx context.Context, filter worker.Filter, limit, offset int) ([]*worker.Worker, error) {
	var out []*worker.Worker
	err := r.s.read(ctx, func(d *dataset) error {
		for _, w := range d.workers {
			if filter.Role != nil && w.Role != *filter.Role {
				continue
			}
			if filter.Status != nil && w.Status != *filter.Status {
				continue
			}
			if filter.Zone != nil && (w.Zone == nil || *w.Zone != *filter.Zone) {
				continue
			}
			out = append(out, copyWorker(w))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SettingStore implements setting.Store.
type SettingStore struct{ s *Store }

func (r *SettingStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := r.s.read(ctx, func(d *dataset) error {
		value, ok = d.settings[key]
		return nil
	})
	return value, ok, err
}

func (r *SettingStore) SetValue(ctx context.Context, key, value string) error {
	return r.s.write(ctx, func(d *dataset) error {
		d.settings[key] = value
		return nil
	})
}

// Lock succeeds inside a transaction, which already holds the store
// exclusively.
func (r *SettingStore) Lock(ctx context.Context, key string) error {
	if !r.s.inTx(ctx) {
		return errors.New("setting lock " + key + " requires a transaction")
	}
	return nil
}

// AuditRepository implements audit.Repository.
type AuditRepository struct{ s *Store }

func (r *AuditRepository) Create(ctx context.Context, log *audit.AuditLog) error {
	return r.s.write(ctx, func(d *dataset) error {
		log.ID = d.next("audit")
		cp := *log
		d.audit = append(d.audit, &cp)
		return nil
	})
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	var out []*audit.AuditLog
	err := r.s.read(ctx, func(d *dataset) error {
		for _, l := range d.audit {
			if l.EntityType == entityType && l.EntityID == entityID {
				cp := *l
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}
