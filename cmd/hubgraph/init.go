package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/peteski22/hubgraph/internal/config"
)

const configTemplate = `# hubgraph configuration

graph:
  # From Azure Portal -> App registrations -> your app -> Overview.
  tenant_id: ""
  client_id: ""
  # From Certificates & secrets. The app needs the ExternalConnection.ReadWrite.OwnedBy
  # and ExternalItem.ReadWrite.OwnedBy application permissions.
  client_secret: ""

hubspot:
  # From HubSpot -> Settings -> Integrations -> Private Apps.
  api_key: ""

connector:
  # Graph external connection identity.
  id: "hubspot-connector"
  name: "HubSpot Connector"
  description: "Microsoft Graph connector for HubSpot CRM data"

server:
  port: 3000
  log_level: "info"
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := config.ConfigFilePath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}
			return runInit(cmd.OutOrStdout(), configPath)
		},
	}
}

// runInit writes the sample configuration file, refusing to overwrite an existing one.
func runInit(out io.Writer, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Created config file:", configPath)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the config file with your credentials")
	_, _ = fmt.Fprintln(out, "  2. Run 'hubgraph auth' to verify them")
	_, _ = fmt.Fprintln(out, "  3. Run 'hubgraph setup' to create the connection and run the first sync")

	return nil
}
