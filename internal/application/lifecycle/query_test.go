package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/casefile"
	casemocks "github.com/querellas/casecore/internal/domain/casefile/mocks"
	"github.com/querellas/casecore/internal/domain/state"
	statemocks "github.com/querellas/casecore/internal/domain/state/mocks"
	"github.com/querellas/casecore/internal/domain/txn"
)

var (
	jan = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	feb = time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)
	mar = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
)

func (f *fixture) openAt(t *testing.T, module state.Module, at time.Time, path ...string) *casefile.Case {
	t.Helper()
	f.svc.now = func() time.Time { return at }
	c := f.open(t, module)
	for i, name := range path {
		f.svc.now = func() time.Time { return at.Add(time.Duration(i+1) * time.Minute) }
		_, err := f.svc.ChangeState(context.Background(), module, c.ID, name, "walk", nil)
		require.NoError(t, err)
	}
	return c
}

func caseIDs(cs []*casefile.Case) []int64 {
	ids := make([]int64, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestListByStateUsesNewestEntryOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	movedOn := f.openAt(t, state.ModuleComplaint, jan, "ASSIGNED", "IN_PROGRESS")
	assigned := f.openAt(t, state.ModuleComplaint, feb, "ASSIGNED")
	received := f.openAt(t, state.ModuleComplaint, mar)
	f.openAt(t, state.ModuleDispatch, feb, "ASSIGNED")

	got, err := f.svc.ListByState(ctx, state.ModuleComplaint, "assigned", state.Period{})
	require.NoError(t, err)
	assert.Equal(t, []int64{assigned.ID}, caseIDs(got), "a case that passed through ASSIGNED is listed under its newest state")

	got, err = f.svc.ListByState(ctx, state.ModuleComplaint, "IN_PROGRESS", state.Period{})
	require.NoError(t, err)
	assert.Equal(t, []int64{movedOn.ID}, caseIDs(got))

	got, err = f.svc.ListByState(ctx, state.ModuleComplaint, "RECEIVED", state.Period{From: &feb})
	require.NoError(t, err)
	assert.Equal(t, []int64{received.ID}, caseIDs(got))

	got, err = f.svc.ListByState(ctx, state.ModuleComplaint, "RECEIVED", state.Period{To: &feb})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.ListByState(ctx, state.ModuleComplaint, "ASSIGNED", state.Period{From: &feb, To: &feb})
	require.NoError(t, err)
	assert.Equal(t, []int64{assigned.ID}, caseIDs(got), "both period bounds are inclusive")
}

func TestListByStateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListByState(ctx, state.ModuleComplaint, "TELEPORTED", state.Period{})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.ListByState(ctx, "ticket", "RECEIVED", state.Period{})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.ListByState(ctx, state.ModuleComplaint, "RECEIVED", state.Period{From: &mar, To: &jan})
	assert.True(t, apperror.IsValidation(err))
}

func TestSummarizeCountsCurrentStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.openAt(t, state.ModuleComplaint, jan, "ASSIGNED", "IN_PROGRESS")
	f.openAt(t, state.ModuleComplaint, feb, "ASSIGNED")
	f.openAt(t, state.ModuleComplaint, mar)
	f.openAt(t, state.ModuleComplaint, mar)
	f.openAt(t, state.ModuleDispatch, mar, "ASSIGNED")

	sum, err := f.svc.Summarize(ctx, state.ModuleComplaint, state.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Total)
	assert.Equal(t, map[string]int64{"IN_PROGRESS": 1, "ASSIGNED": 1, "RECEIVED": 2}, sum.ByState)

	sum, err = f.svc.Summarize(ctx, state.ModuleComplaint, state.Period{From: &feb})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)
	assert.Equal(t, map[string]int64{"ASSIGNED": 1, "RECEIVED": 2}, sum.ByState)

	sum, err = f.svc.Summarize(ctx, state.ModuleDispatch, state.Period{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ASSIGNED": 1}, sum.ByState)
}

func TestSummarizeIncludesCasesWithoutHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := statemocks.NewMockHistoryRepository(ctrl)
	svc := NewService(txn.Passthrough, NewMockCatalog(ctrl), casemocks.NewMockRepository(ctrl), history, nopRecorder{}, zerolog.Nop())

	history.EXPECT().CountByCurrentState(gomock.Any(), state.ModuleComplaint, state.Period{}).
		Return(map[string]int64{"RECEIVED": 3, state.NoStateName: 1}, nil)

	sum, err := svc.Summarize(context.Background(), state.ModuleComplaint, state.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Total)
	assert.Equal(t, int64(1), sum.ByState[state.NoStateName])
}

func TestConcurrentChangesKeepHistoryOnGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.open(t, state.ModuleComplaint)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, target := range []string{"ASSIGNED", "IN_PROGRESS", "RESOLVED"} {
			wg.Add(1)
			go func(target string) {
				defer wg.Done()
				_, _ = f.svc.ChangeState(ctx, state.ModuleComplaint, c.ID, target, "race", nil)
			}(target)
		}
	}
	wg.Wait()

	edges := map[[2]string]bool{}
	for _, e := range complaintGraph().Modules[0].Transitions {
		edges[[2]string{e.From, e.To}] = true
	}
	entries, err := f.svc.History(ctx, state.ModuleComplaint, c.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, state.InitialStateName, entries[len(entries)-1].StateName)
	for i := 0; i < len(entries)-1; i++ {
		from, to := entries[i+1].StateName, entries[i].StateName
		assert.True(t, edges[[2]string{from, to}], "history holds %s -> %s", from, to)
	}
}
