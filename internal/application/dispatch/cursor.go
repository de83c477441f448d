package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/querellas/casecore/internal/domain/setting"
	"github.com/querellas/casecore/internal/domain/worker"
)

// CursorKey is the setting that holds the id of the last worker who received
// an automatic assignment.
const CursorKey = "ROUND_ROBIN_LAST_WORKER_ID"

// Cursor persists the round-robin position as an opaque worker id.
type Cursor struct {
	store  setting.Store
	logger zerolog.Logger
}

// NewCursor creates a cursor backed by store.
func NewCursor(store setting.Store, logger zerolog.Logger) *Cursor {
	return &Cursor{store: store, logger: logger}
}

// Lock serializes cursor users until the surrounding transaction ends.
func (c *Cursor) Lock(ctx context.Context) error {
	if err := c.store.Lock(ctx, CursorKey); err != nil {
		return fmt.Errorf("lock cursor: %w", err)
	}
	return nil
}

// Load returns the last served worker id. A missing or unreadable value is
// reported as absent.
func (c *Cursor) Load(ctx context.Context) (int64, bool, error) {
	raw, ok, err := c.store.GetValue(ctx, CursorKey)
	if err != nil {
		return 0, false, fmt.Errorf("read cursor: %w", err)
	}
	if !ok {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		c.logger.Warn().Str("value", raw).Msg("ignoring unreadable round-robin cursor")
		return 0, false, nil
	}
	return id, true, nil
}

// Store records workerID as the last served worker.
func (c *Cursor) Store(ctx context.Context, workerID int64) error {
	if err := c.store.SetValue(ctx, CursorKey, strconv.FormatInt(workerID, 10)); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	return nil
}

// Position returns the index of workerID in workers, or -1.
func Position(workers []*worker.Worker, workerID int64) int {
	for i, w := range workers {
		if w.ID == workerID {
			return i
		}
	}
	return -1
}
