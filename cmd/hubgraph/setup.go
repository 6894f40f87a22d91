package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/peteski22/hubgraph/internal/app"
	"github.com/peteski22/hubgraph/internal/graph"
)

const defaultSchemaWait = 5 * time.Second

// lifecycle creates and removes the Graph connection.
type lifecycle interface {
	Create(ctx context.Context) (*graph.Connection, error)
	CreateSchema(ctx context.Context) (*graph.Schema, error)
	Delete(ctx context.Context) error
}

// setupOptions controls runSetup.
type setupOptions struct {
	// force deletes an existing connection first.
	force bool

	// schemaWait is how long to wait for Graph to process the schema before syncing.
	schemaWait time.Duration
}

func newSetupCmd(logger *slog.Logger) *cobra.Command {
	opts := setupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the Graph connection and schema, then run the first sync",
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

			store, err := localStateStore(false)
			if err != nil {
				return err
			}

			svc, err := a.SyncService(false, store)
			if err != nil {
				return err
			}

			return runSetup(ctx, cmd.OutOrStdout(), logger, a.Connector, svc, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Delete the existing connection first")
	cmd.Flags().DurationVar(&opts.schemaWait, "schema-wait", defaultSchemaWait,
		"Time to wait for schema processing before the initial sync")

	return cmd
}

// runSetup creates the connection and schema and runs an initial sync.
// Failing to delete (with force) or to sync only produces a warning.
func runSetup(
	ctx context.Context,
	out io.Writer,
	logger *slog.Logger,
	connector lifecycle,
	svc runner,
	opts setupOptions,
) error {
	if opts.force {
		_, _ = fmt.Fprintln(out, "Deleting existing connection...")
		if err := connector.Delete(ctx); err != nil {
			logger.Warn("failed to delete existing connection", "error", err)
		}
	}

	_, _ = fmt.Fprintln(out, "Creating connection...")
	conn, err := connector.Create(ctx)
	if err != nil {
		return fmt.Errorf("creating connection: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Connection %s ready\n", conn.ID)

	_, _ = fmt.Fprintln(out, "Registering schema...")
	if _, err := connector.CreateSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	if opts.schemaWait > 0 {
		_, _ = fmt.Fprintf(out, "Waiting %s for schema processing...\n", opts.schemaWait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.schemaWait):
		}
	}

	_, _ = fmt.Fprintln(out, "Running initial sync...")
	stats, err := svc.Run(ctx)
	if stats != nil {
		printStats(out, stats)
	}
	if err != nil {
		logger.Warn("initial sync failed", "error", err)
		_, _ = fmt.Fprintln(out, "Initial sync failed; run 'hubgraph sync' to retry.")
		return nil
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Setup complete.")
	return nil
}
