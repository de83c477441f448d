package worker

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "context"

// Filter controls worker listing.
type Filter struct {
	Role   *Role
	Status *Status
	Zone   *string
}

// Repository defines persistence for workers.
type Repository interface {
	Create(ctx context.Context, w *Worker) error
	Update(ctx context.Context, w *Worker) error
	// Get returns nil, nil when the worker does not exist.
	Get(ctx context.Context, id int64) (*Worker, error)
	// ListActiveCaseworkers returns active caseworkers ordered by id.
	ListActiveCaseworkers(ctx context.Context) ([]*Worker, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Worker, error)
}
