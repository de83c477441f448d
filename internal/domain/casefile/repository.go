package casefile

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,SearchRepository

import "context"

// Repository defines case persistence.
type Repository interface {
	// Create stores a new case and fills its ID.
	Create(ctx context.Context, c *Case) error
	// Get returns nil, nil when the case does not exist.
	Get(ctx context.Context, id int64) (*Case, error)
	// GetForUpdate is Get that also holds the case row until the surrounding
	// transaction ends. Writers that read then save a case use it.
	GetForUpdate(ctx context.Context, id int64) (*Case, error)
	Save(ctx context.Context, c *Case) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// SearchRepository finds cases by descriptive attributes.
type SearchRepository interface {
	FindByAttributeWindow(ctx context.Context, q WindowQuery) ([]*Case, error)
}
