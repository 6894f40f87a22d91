package storage

import (
	"context"

	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// NoopStateStore is a state store that records nothing.
// Used when no SSM parameter or local state file is configured.
type NoopStateStore struct{}

// NewNoopStateStore creates a new NoopStateStore.
func NewNoopStateStore() *NoopStateStore {
	return &NoopStateStore{}
}

// LastRun always reports that no run has been recorded.
func (s *NoopStateStore) LastRun(_ context.Context) (*hubsync.Stats, error) {
	return nil, nil
}

// SaveRun does nothing.
func (s *NoopStateStore) SaveRun(_ context.Context, _ *hubsync.Stats) error {
	return nil
}
