package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()

	require.NoError(t, err)
	require.Contains(t, dir, ".hubgraph")
}

func TestConfigFilePath(t *testing.T) {
	t.Parallel()

	path, err := ConfigFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".hubgraph")
	require.Equal(t, "config.yaml", filepath.Base(path))
}

func TestStateFilePath(t *testing.T) {
	t.Parallel()

	path, err := StateFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".hubgraph")
	require.Equal(t, "state.json", filepath.Base(path))
}

func writeConfig(t *testing.T, cfg localConfig) string {
	t.Helper()

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestLoadLocalFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config       localConfig
		errFragments []string
		want         *Settings
		wantErr      bool
	}{
		"valid config applies defaults": {
			config: localConfig{
				Graph: localGraph{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					TenantID:     "tenant-id",
				},
				HubSpot: localHubSpot{APIKey: "pat"},
			},
			want: &Settings{
				Connector: Connector{
					Description: DefaultConnectorDescription,
					ID:          DefaultConnectorID,
					Name:        DefaultConnectorName,
				},
				Graph: Graph{
					BaseURL:      DefaultGraphBaseURL,
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					TenantID:     "tenant-id",
				},
				HubSpot: HubSpot{
					APIKey:  "pat",
					BaseURL: DefaultHubSpotBaseURL,
				},
				Server: Server{
					LogLevel: DefaultLogLevel,
					Port:     DefaultPort,
				},
			},
		},
		"custom connector and server": {
			config: localConfig{
				Connector: localConnector{ID: "crm", Name: "CRM", Description: "All CRM records"},
				Graph: localGraph{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					TenantID:     "tenant-id",
				},
				HubSpot: localHubSpot{APIKey: "pat", BaseURL: "http://localhost:9000"},
				Server:  localServer{LogLevel: "debug", Port: 8081},
			},
			want: &Settings{
				Connector: Connector{Description: "All CRM records", ID: "crm", Name: "CRM"},
				Graph: Graph{
					BaseURL:      DefaultGraphBaseURL,
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					TenantID:     "tenant-id",
				},
				HubSpot: HubSpot{APIKey: "pat", BaseURL: "http://localhost:9000"},
				Server:  Server{LogLevel: "debug", Port: 8081},
			},
		},
		"missing credentials": {
			config:  localConfig{},
			wantErr: true,
			errFragments: []string{
				"graph.tenant_id is required",
				"graph.client_id is required",
				"graph.client_secret is required",
				"hubspot.api_key is required",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := loadLocalFile(writeConfig(t, tc.config))

			if tc.wantErr {
				require.Error(t, err)
				require.Nil(t, cfg)
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, cfg)
		})
	}
}

func TestLoadLocalFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := loadLocalFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "config file not found")
	require.ErrorContains(t, err, "hubgraph init")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph: [unclosed"), 0o600))

	_, err = loadLocalFile(path)
	require.ErrorContains(t, err, "parsing config file")
}
