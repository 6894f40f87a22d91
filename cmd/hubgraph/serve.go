package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/peteski22/hubgraph/internal/app"
	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/jobs"
	"github.com/peteski22/hubgraph/internal/server"
	"github.com/peteski22/hubgraph/internal/storage"
	hubsync "github.com/peteski22/hubgraph/internal/sync"
	"github.com/peteski22/hubgraph/internal/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(logger *slog.Logger) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				settings.Server.Port = port
			}

			return runServe(ctx, logger, settings)
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on (overrides PORT)")

	return cmd
}

// runServe serves the API until ctx is cancelled, then drains in-flight requests.
func runServe(ctx context.Context, logger *slog.Logger, settings *config.Settings) error {
	provider, err := telemetry.NewPrometheusProvider()
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to shut down meter provider", "error", err)
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics(provider)
	if err != nil {
		return err
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(provider)
	if err != nil {
		return err
	}

	a, err := app.New(app.Config{Logger: logger, Metrics: syncMetrics, Settings: settings})
	if err != nil {
		return err
	}

	jobStore, stateStore, err := serveStores(ctx, settings)
	if err != nil {
		return err
	}

	svc, err := a.SyncService(false, stateStore)
	if err != nil {
		return err
	}

	queue, err := jobs.NewQueue(jobs.Config{Logger: logger, Runner: svc, Store: jobStore})
	if err != nil {
		return fmt.Errorf("creating job queue: %w", err)
	}

	srv, err := server.New(server.Config{
		CRM:            a.HubSpot,
		Connector:      a.Connector,
		HTTPMetrics:    httpMetrics,
		Jobs:           queue,
		Logger:         logger,
		MetricsHandler: provider.Handler(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(settings.Server.Port)),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		queue.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server listening", "addr", httpServer.Addr, "connection_id", a.Connector.ConnectionID())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// serveStores picks the job and run state stores.
// DynamoDB and SSM are used when their names are configured, otherwise jobs stay in memory
// and runs are not recorded.
func serveStores(ctx context.Context, settings *config.Settings) (jobs.Store, hubsync.StateStore, error) {
	var (
		jobStore   jobs.Store         = storage.NewMemoryJobStore()
		stateStore hubsync.StateStore = storage.NewNoopStateStore()
	)

	if settings.DynamoDB.JobsTableName == "" && settings.SSM.ParameterName == "" {
		return jobStore, stateStore, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading AWS config: %w", err)
	}

	if name := settings.DynamoDB.JobsTableName; name != "" {
		jobStore, err = storage.NewDynamoDBJobStore(dynamodb.NewFromConfig(awsCfg), name)
		if err != nil {
			return nil, nil, err
		}
	}

	if name := settings.SSM.ParameterName; name != "" {
		stateStore, err = storage.NewSSMStateStore(ssm.NewFromConfig(awsCfg), name)
		if err != nil {
			return nil, nil, err
		}
	}

	return jobStore, stateStore, nil
}
