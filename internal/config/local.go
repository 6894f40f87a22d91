package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".hubgraph"
	configFileName = "config.yaml"
	stateFileName  = "state.json"
)

// localConfig represents the local configuration file structure.
type localConfig struct {
	Connector localConnector `yaml:"connector"`
	Graph     localGraph     `yaml:"graph"`
	HubSpot   localHubSpot   `yaml:"hubspot"`
	Server    localServer    `yaml:"server"`
}

// localConnector represents the connector section of the config file.
type localConnector struct {
	Description string `yaml:"description"`
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
}

// localGraph represents the graph section of the config file.
type localGraph struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TenantID     string `yaml:"tenant_id"`
}

// localHubSpot represents the hubspot section of the config file.
type localHubSpot struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// localServer represents the server section of the config file.
type localServer struct {
	LogLevel string `yaml:"log_level"`
	Port     int    `yaml:"port"`
}

// ConfigDir returns the hubgraph configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// StateFilePath returns the path to the local sync state file.
func StateFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*Settings, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	return loadLocalFile(configPath)
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

func loadLocalFile(configPath string) (*Settings, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s (run 'hubgraph init' to create)", configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var local localConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Settings{
		Connector: Connector{
			Description: orDefault(local.Connector.Description, DefaultConnectorDescription),
			ID:          orDefault(local.Connector.ID, DefaultConnectorID),
			Name:        orDefault(local.Connector.Name, DefaultConnectorName),
		},
		Graph: Graph{
			BaseURL:      orDefault(local.Graph.BaseURL, DefaultGraphBaseURL),
			ClientID:     local.Graph.ClientID,
			ClientSecret: local.Graph.ClientSecret,
			TenantID:     local.Graph.TenantID,
		},
		HubSpot: HubSpot{
			APIKey:  local.HubSpot.APIKey,
			BaseURL: orDefault(local.HubSpot.BaseURL, DefaultHubSpotBaseURL),
		},
		Server: Server{
			LogLevel: orDefault(local.Server.LogLevel, DefaultLogLevel),
			Port:     local.Server.Port,
		},
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}

	if err := cfg.validateLocal(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func orDefault(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// validateLocal checks that required fields are set, naming them by their file keys.
func (s *Settings) validateLocal() error {
	var errs []error

	if s.Graph.TenantID == "" {
		errs = append(errs, errors.New("graph.tenant_id is required"))
	}
	if s.Graph.ClientID == "" {
		errs = append(errs, errors.New("graph.client_id is required"))
	}
	if s.Graph.ClientSecret == "" {
		errs = append(errs, errors.New("graph.client_secret is required"))
	}
	if s.HubSpot.APIKey == "" {
		errs = append(errs, errors.New("hubspot.api_key is required"))
	}
	if _, err := ParseLogLevel(s.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("server.log_level: %w", err))
	}

	return errors.Join(errs...)
}
