// Package setting holds the string key/value configuration store used for
// durable runtime markers such as the dispatch cursor.
package setting

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import "context"

// Store is a string key/value store that participates in the caller's
// transaction.
type Store interface {
	// GetValue returns false when the key has never been written.
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	// Lock blocks until the caller holds the key exclusively. The lock is
	// released when the surrounding transaction ends.
	Lock(ctx context.Context, key string) error
}
