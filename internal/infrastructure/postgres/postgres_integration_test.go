//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditapp "github.com/querellas/casecore/internal/application/audit"
	"github.com/querellas/casecore/internal/application/catalog"
	"github.com/querellas/casecore/internal/application/dispatch"
	"github.com/querellas/casecore/internal/application/duplicate"
	"github.com/querellas/casecore/internal/application/lifecycle"
	workerapp "github.com/querellas/casecore/internal/application/worker"
	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/audit"
	"github.com/querellas/casecore/internal/domain/casefile"
	"github.com/querellas/casecore/internal/domain/state"
	"github.com/querellas/casecore/internal/domain/worker"
	"github.com/querellas/casecore/internal/infrastructure/postgres"
	"github.com/querellas/casecore/internal/migrations"
)

var signKey = []byte("0123456789abcdef0123456789abcdef")

type stack struct {
	pool       *pgxpool.Pool
	tx         *postgres.TxManager
	cases      *postgres.CaseRepository
	settings   *postgres.SettingStore
	catalog    *catalog.Service
	lifecycle  *lifecycle.Service
	dispatcher *dispatch.Dispatcher
	finder     *duplicate.Finder
	workers    *workerapp.Service
	audit      *auditapp.Service
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrationsFS(ctx, pool, migrations.Files))
	require.NoError(t, postgres.RunMigrationsFS(ctx, pool, migrations.Files), "migrations must be re-runnable")
	_, err = pool.Exec(ctx, `TRUNCATE TABLE audit_logs, case_history, cases, state_transitions, case_states, workers, settings RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	logger := zerolog.Nop()
	txm := postgres.NewTxManager(pool)
	cases := postgres.NewCaseRepository(pool)
	settings := postgres.NewSettingStore(pool)
	workerRepo := postgres.NewWorkerRepository(pool)
	auditSvc := auditapp.NewService(postgres.NewAuditRepository(pool), logger, signKey)
	catalogSvc := catalog.NewService(txm, postgres.NewStateRepository(pool), postgres.NewTransitionRepository(pool), logger).WithRecorder(auditSvc)

	return &stack{
		pool:       pool,
		tx:         txm,
		cases:      cases,
		settings:   settings,
		catalog:    catalogSvc,
		lifecycle:  lifecycle.NewService(txm, catalogSvc, cases, postgres.NewHistoryRepository(pool), auditSvc, logger),
		dispatcher: dispatch.NewDispatcher(txm, settings, cases, workerRepo, auditSvc, logger),
		finder:     duplicate.NewFinder(cases, cases, logger),
		workers:    workerapp.NewService(txm, workerRepo, auditSvc, logger),
		audit:      auditSvc,
	}
}

func complaintGraph() state.Definition {
	return state.Definition{Modules: []state.ModuleDefinition{{
		Module: state.ModuleComplaint,
		States: []string{"RECEIVED", "IN_REVIEW", "RESOLVED", "CLOSED"},
		Transitions: []state.Edge{
			{From: "RECEIVED", To: "IN_REVIEW"},
			{From: "IN_REVIEW", To: "RESOLVED"},
			{From: "RESOLVED", To: "CLOSED"},
		},
	}}}
}

func TestLifecycleAgainstPostgres(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.catalog.Seed(ctx, complaintGraph())
	require.NoError(t, err)
	_, err = s.catalog.Seed(ctx, complaintGraph())
	require.NoError(t, err, "seeding twice is harmless")

	opened, err := s.lifecycle.OpenCase(ctx, lifecycle.OpenInput{Module: state.ModuleComplaint, Address: "Calle 5 # 2-10"})
	require.NoError(t, err)
	assert.Equal(t, state.InitialStateName, opened.State)
	id := opened.Case.ID

	res, err := s.lifecycle.ChangeState(ctx, state.ModuleComplaint, id, "in_review", "triaged", nil)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = s.lifecycle.ChangeState(ctx, state.ModuleComplaint, id, "IN_REVIEW", "again", nil)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = s.lifecycle.ChangeState(ctx, state.ModuleComplaint, id, "CLOSED", "skip", nil)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeTransitionNotPermitted, apperror.Code(err))

	current, err := s.lifecycle.CurrentState(ctx, state.ModuleComplaint, id)
	require.NoError(t, err)
	assert.Equal(t, "IN_REVIEW", current)

	entries, err := s.lifecycle.History(ctx, state.ModuleComplaint, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "IN_REVIEW", entries[0].StateName)
	assert.Equal(t, "RECEIVED", entries[1].StateName)

	logs, err := s.audit.EntityHistory(ctx, audit.EntityTypeComplaint, formatID(id))
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	for _, l := range logs {
		assert.True(t, l.Verified, "audit %s must verify after a round trip", l.Log.AuditID)
	}
}

func TestRoundRobinAgainstPostgres(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.catalog.Seed(ctx, complaintGraph())
	require.NoError(t, err)

	var workerIDs []int64
	for _, email := range []string{"a@city.gov", "b@city.gov", "c@city.gov"} {
		w, err := s.workers.Register(ctx, workerapp.RegisterInput{Name: email, Email: email, Role: worker.RoleCaseworker})
		require.NoError(t, err)
		workerIDs = append(workerIDs, w.ID)
	}

	var caseIDs []int64
	for i := 0; i < 5; i++ {
		res, err := s.lifecycle.OpenCase(ctx, lifecycle.OpenInput{Module: state.ModuleComplaint, Address: "Av 3"})
		require.NoError(t, err)
		caseIDs = append(caseIDs, res.Case.ID)
	}

	batch, err := s.dispatcher.AssignBatch(ctx, caseIDs, nil)
	require.NoError(t, err)
	want := []int64{workerIDs[0], workerIDs[1], workerIDs[2], workerIDs[0], workerIDs[1]}
	for i, a := range batch.Assignments {
		assert.Equal(t, want[i], a.WorkerID)
	}
	assert.Equal(t, workerIDs[1], batch.LastWorkerID)

	_, err = s.dispatcher.AssignBatch(ctx, []int64{caseIDs[0], 999999}, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	raw, ok, err := s.settings.GetValue(ctx, dispatch.CursorKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, formatID(workerIDs[1]), raw, "failed batch leaves the cursor alone")
}

func TestConcurrentBatchesAgainstPostgres(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.catalog.Seed(ctx, complaintGraph())
	require.NoError(t, err)

	for _, email := range []string{"a@city.gov", "b@city.gov", "c@city.gov"} {
		_, err := s.workers.Register(ctx, workerapp.RegisterInput{Name: email, Email: email, Role: worker.RoleCaseworker})
		require.NoError(t, err)
	}

	batches := make([][]int64, 4)
	for b := range batches {
		for i := 0; i < 3; i++ {
			res, err := s.lifecycle.OpenCase(ctx, lifecycle.OpenInput{Module: state.ModuleComplaint, Address: "Av 9"})
			require.NoError(t, err)
			batches[b] = append(batches[b], res.Case.ID)
		}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[int64]int{}
	)
	for _, ids := range batches {
		wg.Add(1)
		go func(ids []int64) {
			defer wg.Done()
			res, err := s.dispatcher.AssignBatch(ctx, ids, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, a := range res.Assignments {
				counts[a.WorkerID]++
			}
		}(ids)
	}
	wg.Wait()

	require.Len(t, counts, 3)
	for id, n := range counts {
		assert.Equal(t, 4, n, "worker %d", id)
	}
}

func TestDuplicateWindowAgainstPostgres(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	create := func(addr string, at time.Time) int64 {
		c := &casefile.Case{Module: state.ModuleComplaint, Address: addr, CreatedAt: at}
		require.NoError(t, s.cases.Create(ctx, c))
		return c.ID
	}
	baseID := create("Calle 1", base)
	create("Calle 1", base.Add(-181*24*time.Hour))
	inside := create("CALLE 1", base.Add(-180*24*time.Hour))
	edge := create("calle 1", base.Add(30*24*time.Hour))
	create("Calle 1", base.Add(31*24*time.Hour))

	found, err := s.finder.FindCandidates(ctx, baseID)
	require.NoError(t, err)
	var ids []int64
	for _, c := range found {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []int64{inside, edge}, ids)

	plainS := create("Calle s", base)
	upperS := create("CALLE S", base)
	create("Calle ſ", base)
	found, err = s.finder.FindCandidates(ctx, plainS)
	require.NoError(t, err)
	require.Len(t, found, 1, "lower() leaves the long s alone")
	assert.Equal(t, upperS, found[0].ID)
}

func TestConcurrentTransitionsStayOnGraph(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	forked := state.Definition{Modules: []state.ModuleDefinition{{
		Module: state.ModuleDispatch,
		States: []string{"RECEIVED", "ASSIGNED", "RETURNED", "IN_PROGRESS"},
		Transitions: []state.Edge{
			{From: "RECEIVED", To: "ASSIGNED"},
			{From: "RECEIVED", To: "RETURNED"},
			{From: "ASSIGNED", To: "IN_PROGRESS"},
		},
	}}}
	_, err := s.catalog.Seed(ctx, forked)
	require.NoError(t, err)
	opened, err := s.lifecycle.OpenCase(ctx, lifecycle.OpenInput{Module: state.ModuleDispatch, Address: "Cra 3"})
	require.NoError(t, err)
	caseID := opened.Case.ID

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		for _, target := range []string{"ASSIGNED", "RETURNED", "IN_PROGRESS"} {
			wg.Add(1)
			go func(target string) {
				defer wg.Done()
				_, _ = s.lifecycle.ChangeState(ctx, state.ModuleDispatch, caseID, target, "race", nil)
			}(target)
		}
	}
	wg.Wait()

	edges := map[[2]string]bool{}
	for _, e := range forked.Modules[0].Transitions {
		edges[[2]string{e.From, e.To}] = true
	}
	entries, err := s.lifecycle.History(ctx, state.ModuleDispatch, caseID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2, "one of the racing transitions out of RECEIVED wins")
	assert.Equal(t, state.InitialStateName, entries[len(entries)-1].StateName)
	for i := 0; i < len(entries)-1; i++ {
		from, to := entries[i+1].StateName, entries[i].StateName
		assert.True(t, edges[[2]string{from, to}], "history holds %s -> %s", from, to)
	}
}

func TestCurrentStateQueriesAgainstPostgres(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.catalog.Seed(ctx, complaintGraph())
	require.NoError(t, err)

	open := func() int64 {
		res, err := s.lifecycle.OpenCase(ctx, lifecycle.OpenInput{Module: state.ModuleComplaint, Address: "Av 2"})
		require.NoError(t, err)
		return res.Case.ID
	}
	movedOn := open()
	inReview := open()
	received := open()
	for _, target := range []string{"IN_REVIEW", "RESOLVED"} {
		_, err := s.lifecycle.ChangeState(ctx, state.ModuleComplaint, movedOn, target, "walk", nil)
		require.NoError(t, err)
	}
	_, err = s.lifecycle.ChangeState(ctx, state.ModuleComplaint, inReview, "IN_REVIEW", "walk", nil)
	require.NoError(t, err)

	cases, err := s.lifecycle.ListByState(ctx, state.ModuleComplaint, "in_review", state.Period{})
	require.NoError(t, err)
	require.Len(t, cases, 1, "a case that passed through IN_REVIEW is listed under its newest state")
	assert.Equal(t, inReview, cases[0].ID)

	cases, err = s.lifecycle.ListByState(ctx, state.ModuleComplaint, "RECEIVED", state.Period{})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, received, cases[0].ID)

	future := time.Now().Add(time.Hour)
	cases, err = s.lifecycle.ListByState(ctx, state.ModuleComplaint, "RECEIVED", state.Period{From: &future})
	require.NoError(t, err)
	assert.Empty(t, cases)

	sum, err := s.lifecycle.Summarize(ctx, state.ModuleComplaint, state.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)
	assert.Equal(t, map[string]int64{"RESOLVED": 1, "IN_REVIEW": 1, "RECEIVED": 1}, sum.ByState)

	orphan := &casefile.Case{Module: state.ModuleComplaint, Address: "Av 3"}
	require.NoError(t, s.cases.Create(ctx, orphan))
	sum, err = s.lifecycle.Summarize(ctx, state.ModuleComplaint, state.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.ByState[state.NoStateName])
}

func TestSettingLockRequiresTransaction(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	assert.Error(t, s.settings.Lock(ctx, dispatch.CursorKey))
	require.NoError(t, s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.settings.Lock(ctx, dispatch.CursorKey)
	}))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
