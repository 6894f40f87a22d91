package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/hubgraph/internal/graph"
)

type mockLifecycle struct {
	calls     []string
	createErr error
	deleteErr error
	schemaErr error
}

func (m *mockLifecycle) Create(_ context.Context) (*graph.Connection, error) {
	m.calls = append(m.calls, "create")
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &graph.Connection{ID: "hubspot-connector"}, nil
}

func (m *mockLifecycle) CreateSchema(_ context.Context) (*graph.Schema, error) {
	m.calls = append(m.calls, "schema")
	if m.schemaErr != nil {
		return nil, m.schemaErr
	}
	return &graph.Schema{}, nil
}

func (m *mockLifecycle) Delete(_ context.Context) error {
	m.calls = append(m.calls, "delete")
	return m.deleteErr
}

func TestRunSetup(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		connector  *mockLifecycle
		force      bool
		runErr     error
		wantCalls  []string
		wantRuns   int
		wantErr    string
		wantOutput string
	}{
		"fresh setup": {
			connector:  &mockLifecycle{},
			wantCalls:  []string{"create", "schema"},
			wantRuns:   1,
			wantOutput: "Setup complete.",
		},
		"force deletes first": {
			connector:  &mockLifecycle{},
			force:      true,
			wantCalls:  []string{"delete", "create", "schema"},
			wantRuns:   1,
			wantOutput: "Setup complete.",
		},
		"delete failure is ignored": {
			connector:  &mockLifecycle{deleteErr: errors.New("not found")},
			force:      true,
			wantCalls:  []string{"delete", "create", "schema"},
			wantRuns:   1,
			wantOutput: "Setup complete.",
		},
		"create failure aborts": {
			connector: &mockLifecycle{createErr: errors.New("conflict")},
			wantCalls: []string{"create"},
			wantErr:   "creating connection: conflict",
		},
		"schema failure aborts": {
			connector: &mockLifecycle{schemaErr: errors.New("bad schema")},
			wantCalls: []string{"create", "schema"},
			wantErr:   "creating schema: bad schema",
		},
		"sync failure is a warning": {
			connector:  &mockLifecycle{},
			runErr:     errors.New("saving run state: denied"),
			wantCalls:  []string{"create", "schema"},
			wantRuns:   1,
			wantOutput: "Initial sync failed",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc := &mockRunner{err: tc.runErr, stats: testStats()}
			var out bytes.Buffer

			err := runSetup(context.Background(), &out, discardLogger, tc.connector, svc, setupOptions{force: tc.force})

			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				require.Contains(t, out.String(), tc.wantOutput)
			}
			require.Equal(t, tc.wantCalls, tc.connector.calls)
			require.Equal(t, tc.wantRuns, svc.calls)
		})
	}
}

func TestRunSetup_CancelledDuringSchemaWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &mockRunner{stats: testStats()}

	err := runSetup(ctx, &bytes.Buffer{}, discardLogger, &mockLifecycle{}, svc, setupOptions{schemaWait: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, svc.calls)
}
