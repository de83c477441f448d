package state

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,TransitionRepository,HistoryRepository

import "context"

// Repository persists the state catalog.
type Repository interface {
	// Find returns nil, nil when the state does not exist.
	Find(ctx context.Context, module Module, name string) (*State, error)
	ListByModule(ctx context.Context, module Module) ([]*State, error)
	// Upsert inserts the state if missing and fills ID and CreatedAt.
	Upsert(ctx context.Context, st *State) error
}

// TransitionRepository persists the per-module transition graph.
type TransitionRepository interface {
	EdgeExists(ctx context.Context, module Module, fromID, toID int64) (bool, error)
	ListByModule(ctx context.Context, module Module) ([]*Transition, error)
	Upsert(ctx context.Context, t *Transition) error
}

// HistoryRepository is the append-only case history ledger.
type HistoryRepository interface {
	// LatestStateName returns the state of the newest entry, and false when
	// the case has no history at all.
	LatestStateName(ctx context.Context, module Module, caseID int64) (string, bool, error)
	Append(ctx context.Context, entry *HistoryEntry) error
	ListDescending(ctx context.Context, module Module, caseID int64) ([]*HistoryEntry, error)
	// ListByCurrentState returns, ordered by id, the ids of cases created in
	// period whose newest entry is in stateName.
	ListByCurrentState(ctx context.Context, module Module, stateName string, period Period) ([]int64, error)
	// CountByCurrentState counts the cases created in period by the state of
	// their newest entry. Cases without history count under NoStateName.
	CountByCurrentState(ctx context.Context, module Module, period Period) (map[string]int64, error)
}
