package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peteski22/hubgraph/internal/app"
	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
	"github.com/peteski22/hubgraph/internal/storage"
	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// statusChecker reports the state of the Graph connection.
type statusChecker interface {
	Status(ctx context.Context) (*graph.Connection, error)
}

// runner executes one sync run.
type runner interface {
	Run(ctx context.Context) (*hubsync.Stats, error)
}

func newSyncCmd(logger *slog.Logger) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync every HubSpot record into the Graph connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			a, err := app.New(app.Config{Logger: logger, Settings: settings})
			if err != nil {
				return err
			}

			store, err := localStateStore(dryRun)
			if err != nil {
				return err
			}

			svc, err := a.SyncService(dryRun, store)
			if err != nil {
				return err
			}

			return runSync(ctx, cmd.OutOrStdout(), a.Connector, svc)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log items instead of writing them to Graph")

	return cmd
}

// localStateStore returns the file store under ~/.hubgraph, or a noop store for dry runs.
func localStateStore(dryRun bool) (hubsync.StateStore, error) {
	if dryRun {
		return storage.NewNoopStateStore(), nil
	}

	path, err := config.StateFilePath()
	if err != nil {
		return nil, err
	}
	return storage.NewFileStateStore(path)
}

// runSync checks the connection exists, then runs one sync and prints its stats.
func runSync(ctx context.Context, out io.Writer, connector statusChecker, svc runner) error {
	conn, err := connector.Status(ctx)
	if err != nil {
		return fmt.Errorf("checking connector status: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Connection %s is %s\n", conn.ID, stateOr(conn.State, "unknown"))

	stats, err := svc.Run(ctx)
	if stats != nil {
		printStats(out, stats)
	}
	if err != nil {
		return err
	}

	return nil
}

// printStats writes a human readable summary of a run.
func printStats(out io.Writer, stats *hubsync.Stats) {
	_, _ = fmt.Fprintln(out)
	if stats.DryRun {
		_, _ = fmt.Fprintln(out, "=== Sync summary (dry run) ===")
	} else {
		_, _ = fmt.Fprintln(out, "=== Sync summary ===")
	}
	for _, objectType := range hubspot.ObjectTypes() {
		_, _ = fmt.Fprintf(out, "%-10s %d\n", objectType+":", stats.Count(objectType))
	}
	_, _ = fmt.Fprintf(out, "%-10s %d\n", "errors:", stats.Errors)
	_, _ = fmt.Fprintf(out, "%-10s %d\n", "skipped:", stats.RecordErrors)
	_, _ = fmt.Fprintf(out, "%-10s %s\n", "duration:", stats.Duration())
}

func stateOr(state string, fallback string) string {
	if state == "" {
		return fallback
	}
	return state
}
