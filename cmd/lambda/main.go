// Package main provides the Lambda entry point that runs one sync per invocation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/peteski22/hubgraph/internal/app"
	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/storage"
	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// runner executes one sync run.
type runner interface {
	Run(ctx context.Context) (*hubsync.Stats, error)
}

func main() {
	level, err := config.ParseLogLevel(os.Getenv(config.EnvLogLevel))
	if err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	svc, err := buildService(context.Background(), logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	lambda.Start(newHandler(logger, svc))
}

// buildService loads settings from the environment and wires the sync service.
// Runs are recorded in SSM when SSM_PARAMETER_NAME is set.
func buildService(ctx context.Context, logger *slog.Logger) (*hubsync.Service, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	if settings.NeedsSecrets() {
		resolver, err := storage.NewSecretResolver(secretsmanager.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
		if err := settings.ResolveSecrets(ctx, resolver); err != nil {
			return nil, err
		}
	}

	a, err := app.New(app.Config{Logger: logger, Settings: settings})
	if err != nil {
		return nil, err
	}

	store, err := stateStore(awsCfg, settings)
	if err != nil {
		return nil, err
	}

	return a.SyncService(false, store)
}

func stateStore(awsCfg aws.Config, settings *config.Settings) (hubsync.StateStore, error) {
	if settings.SSM.ParameterName == "" {
		return storage.NewNoopStateStore(), nil
	}
	return storage.NewSSMStateStore(ssm.NewFromConfig(awsCfg), settings.SSM.ParameterName)
}

// newHandler returns the Lambda handler for scheduled invocations.
// The invocation fails when any object type failed, so the platform can alarm on it.
func newHandler(logger *slog.Logger, svc runner) func(context.Context, events.CloudWatchEvent) (*hubsync.Stats, error) {
	return func(ctx context.Context, event events.CloudWatchEvent) (*hubsync.Stats, error) {
		logger.InfoContext(ctx, "starting sync", "event_id", event.ID, "source", event.Source)

		stats, err := svc.Run(ctx)
		if err != nil {
			return stats, err
		}

		if stats.Errors > 0 {
			return stats, fmt.Errorf("%d object types failed to sync", stats.Errors)
		}

		logger.InfoContext(ctx, "sync complete")
		return stats, nil
	}
}
