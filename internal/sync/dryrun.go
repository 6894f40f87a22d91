package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/peteski22/hubgraph/internal/graph"
)

// dryRunDestination logs upserts instead of executing them.
type dryRunDestination struct {
	counter atomic.Uint64
	logger  *slog.Logger
}

// newDryRunDestination creates a destination that only logs.
func newDryRunDestination(logger *slog.Logger) *dryRunDestination {
	return &dryRunDestination{logger: logger}
}

// UpsertItem logs what would be written and returns nil.
func (d *dryRunDestination) UpsertItem(_ context.Context, connectionID string, item *graph.ExternalItem) error {
	seq := d.counter.Add(1)

	d.logger.Info("[DRY-RUN] would upsert item",
		"seq", seq,
		"connection_id", connectionID,
		"item_id", item.ID,
		"object_type", item.Properties.ObjectType,
		"title", item.Properties.Title,
		"last_modified", item.Properties.LastModified)

	return nil
}

// upserts returns the number of upserts logged so far.
func (d *dryRunDestination) upserts() uint64 {
	return d.counter.Load()
}
