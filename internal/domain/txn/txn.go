// Package txn defines the transaction boundary shared by the storage
// backends.
package txn

import "context"

// Manager runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. A call made with a context that
// already carries a transaction joins it instead of opening a new one.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ManagerFunc adapts a function to Manager.
type ManagerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f ManagerFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Passthrough runs fn directly without a transaction. Used with mocked
// repositories.
var Passthrough Manager = ManagerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
