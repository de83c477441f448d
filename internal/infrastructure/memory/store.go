// Package memory is an in-process implementation of every storage contract.
// Transactions are serialized; a transaction that fails or panics restores
// the snapshot taken when it began.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/worker"
)

type txKey struct{}

type historyKey struct {
	module state.Module
	caseID int64
}

type dataset struct {
	seq map[string]int64

	states      map[int64]*state.State
	transitions map[int64]*state.Transition
	history     []*state.HistoryEntry
	latest      map[historyKey]*state.HistoryEntry
	cases       map[int64]*casefile.Case
	workers     map[int64]*worker.Worker
	settings    map[string]string
	audit       []*audit.AuditLog
}

func newDataset() *dataset {
	return &dataset{
		seq:         map[string]int64{},
		states:      map[int64]*state.State{},
		transitions: map[int64]*state.Transition{},
		latest:      map[historyKey]*state.HistoryEntry{},
		cases:       map[int64]*casefile.Case{},
		workers:     map[int64]*worker.Worker{},
		settings:    map[string]string{},
	}
}

func (d *dataset) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// clone copies every mutable record. History and audit entries are never
// modified after append, so their slices share elements.
func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.seq {
		c.seq[k] = v
	}
	for k, v := range d.states {
		cp := *v
		c.states[k] = &cp
	}
	for k, v := range d.transitions {
		cp := *v
		c.transitions[k] = &cp
	}
	c.history = append([]*state.HistoryEntry(nil), d.history...)
	for k, v := range d.latest {
		c.latest[k] = v
	}
	for k, v := range d.cases {
		c.cases[k] = copyCase(v)
	}
	for k, v := range d.workers {
		c.workers[k] = copyWorker(v)
	}
	for k, v := range d.settings {
		c.settings[k] = v
	}
	c.audit = append([]*audit.AuditLog(nil), d.audit...)
	return c
}

// Store holds all tables in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newDataset(), now: time.Now}
}

// WithinTx implements txn.Manager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.data = snapshot
			s.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// read runs fn against the current data.
func (s *Store) read(ctx context.Context, fn func(d *dataset) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// write runs fn in the caller's transaction, or in its own one.
func (s *Store) write(ctx context.Context, fn func(d *dataset) error) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.data)
	})
}

func (s *Store) States() *StateRepository { return &StateRepository{s: s} }
func (s *Store) Transitions() *TransitionRepository { return &TransitionRepository{s: s} }
func (s *Store) History() *HistoryRepository { return &HistoryRepository{s: s} }
func (s *Store) Cases() *CaseRepository { return &CaseRepository{s: s} }
func (s *Store) Workers() *WorkerRepository { return &WorkerRepository{s: s} }
func (s *Store) Settings() *SettingStore { return &SettingStore{s: s} }
func (s *Store) Audit() *AuditRepository { return &AuditRepository{s: s} }

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyCase(c *casefile.Case) *casefile.Case {
	cp := *c
	cp.Category = copyString(c.Category)
	cp.Zone = copyString(c.Zone)
	cp.AssignedWorkerID = copyInt64(c.AssignedWorkerID)
	cp.AssignedByID = copyInt64(c.AssignedByID)
	return &cp
}

func copyWorker(w *worker.Worker) *worker.Worker {
	cp := *w
	cp.Zone = copyString(w.Zone)
	return &cp
}

func copyEntry(e *state.HistoryEntry) *state.HistoryEntry {
	cp := *e
	cp.ActorID = copyInt64(e.ActorID)
	return &cp
}
