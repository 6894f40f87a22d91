package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/storage"
)

func TestServeStores_Defaults(t *testing.T) {
	t.Parallel()

	jobStore, stateStore, err := serveStores(context.Background(), &config.Settings{})

	require.NoError(t, err)
	require.IsType(t, &storage.MemoryJobStore{}, jobStore)
	require.IsType(t, &storage.NoopStateStore{}, stateStore)
}
