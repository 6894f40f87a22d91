package main

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/cobra"

	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/storage"
)

// newRootCmd creates the root command and its subcommands.
func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "hubgraph",
		Short: "Index HubSpot CRM records in Microsoft Search",
		Long: `hubgraph pushes HubSpot contacts, companies, deals and tickets into a
Microsoft Graph external connection so they can be found in Microsoft Search.

Configuration is read from ~/.hubgraph/config.yaml when it exists, otherwise
from environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newAuthCmd(logger),
		newInitCmd(),
		newServeCmd(logger),
		newSetupCmd(logger),
		newSyncCmd(logger),
	)

	return root
}

// loadSettings reads the local config file if present, otherwise the environment,
// and resolves any credentials given as Secrets Manager ARNs.
func loadSettings(ctx context.Context) (*config.Settings, error) {
	var (
		settings *config.Settings
		err      error
	)
	if config.LocalConfigExists() {
		settings, err = config.LoadLocal()
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if !settings.NeedsSecrets() {
		return settings, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	resolver, err := storage.NewSecretResolver(secretsmanager.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}

	if err := settings.ResolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}

	return settings, nil
}
