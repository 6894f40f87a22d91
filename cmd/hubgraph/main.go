// Package main provides the hubgraph command line interface.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peteski22/hubgraph/internal/config"
)

func main() {
	level, err := config.ParseLogLevel(os.Getenv(config.EnvLogLevel))
	if err != nil {
		level = slog.LevelInfo
	}

	// Logs go to stderr so command output on stdout stays clean.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(logger).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
