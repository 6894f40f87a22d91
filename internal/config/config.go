// Package config provides configuration loading from environment variables and a local file.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	// EnvClientID is the Azure AD application (client) ID.
	EnvClientID = "CLIENT_ID"

	// EnvClientSecret is the Azure AD client secret.
	EnvClientSecret = "CLIENT_SECRET"

	// EnvClientSecretARN is the Secrets Manager ARN holding the Azure AD client secret.
	EnvClientSecretARN = "CLIENT_SECRET_ARN"

	// EnvConnectorDescription is the description of the Graph external connection.
	EnvConnectorDescription = "CONNECTOR_DESCRIPTION"

	// EnvConnectorID is the ID of the Graph external connection.
	EnvConnectorID = "CONNECTOR_ID"

	// EnvConnectorName is the display name of the Graph external connection.
	EnvConnectorName = "CONNECTOR_NAME"

	// EnvGraphBaseURL is the base URL for the Microsoft Graph API.
	EnvGraphBaseURL = "GRAPH_BASE_URL"

	// EnvHubSpotAPIKey is the HubSpot private app access token.
	EnvHubSpotAPIKey = "HUBSPOT_API_KEY"

	// EnvHubSpotAPIKeySecretARN is the Secrets Manager ARN holding the HubSpot access token.
	EnvHubSpotAPIKeySecretARN = "HUBSPOT_API_KEY_SECRET_ARN"

	// EnvHubSpotBaseURL is the base URL for the HubSpot API.
	EnvHubSpotBaseURL = "HUBSPOT_BASE_URL"

	// EnvJobsTableName is the DynamoDB table for sync jobs. Jobs are kept in memory when unset.
	EnvJobsTableName = "JOBS_TABLE_NAME"

	// EnvLogLevel is the minimum log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvPort is the HTTP listen port.
	EnvPort = "PORT"

	// EnvSSMParameterName is the SSM parameter storing the last sync run.
	EnvSSMParameterName = "SSM_PARAMETER_NAME"

	// EnvTenantID is the Azure AD tenant ID.
	EnvTenantID = "TENANT_ID"
)

// Defaults applied when the corresponding setting is not provided.
const (
	DefaultConnectorDescription = "Microsoft Graph connector for HubSpot CRM data"
	DefaultConnectorID          = "hubspot-connector"
	DefaultConnectorName        = "HubSpot Connector"
	DefaultGraphBaseURL         = "https://graph.microsoft.com/v1.0"
	DefaultHubSpotBaseURL       = "https://api.hubapi.com"
	DefaultLogLevel             = "info"
	DefaultPort                 = 3000
)

// SecretResolver reads a secret value by ID or ARN.
type SecretResolver interface {
	SecretValue(ctx context.Context, secretID string) (string, error)
}

// Connector holds the Graph external connection identity.
type Connector struct {
	// Description is the connection description shown in Microsoft Search.
	Description string

	// ID is the connection identifier.
	ID string

	// Name is the connection display name.
	Name string
}

// DynamoDB holds AWS DynamoDB configuration.
type DynamoDB struct {
	// JobsTableName is the name of the DynamoDB table for sync jobs.
	JobsTableName string
}

// Graph holds Microsoft Graph API configuration.
type Graph struct {
	// BaseURL is the base URL for API requests.
	BaseURL string

	// ClientID is the Azure AD application identifier.
	ClientID string

	// ClientSecret is the Azure AD client secret.
	ClientSecret string

	// ClientSecretARN is the Secrets Manager ARN storing the client secret.
	ClientSecretARN string

	// TenantID is the Azure AD tenant identifier.
	TenantID string
}

// HubSpot holds HubSpot API configuration.
type HubSpot struct {
	// APIKey is the private app access token.
	APIKey string

	// APIKeySecretARN is the Secrets Manager ARN storing the access token.
	APIKeySecretARN string

	// BaseURL is the base URL for API requests.
	BaseURL string
}

// Server holds HTTP server and logging configuration.
type Server struct {
	// LogLevel is the minimum log level.
	LogLevel string

	// Port is the HTTP listen port.
	Port int
}

// SSM holds AWS Systems Manager Parameter Store configuration.
type SSM struct {
	// ParameterName is the SSM parameter storing the last sync run.
	ParameterName string
}

// Settings holds all configuration for the application.
type Settings struct {
	// Connector contains the Graph external connection identity.
	Connector Connector

	// DynamoDB contains AWS DynamoDB settings.
	DynamoDB DynamoDB

	// Graph contains Microsoft Graph API settings.
	Graph Graph

	// HubSpot contains HubSpot API settings.
	HubSpot HubSpot

	// SSM contains AWS Systems Manager Parameter Store settings.
	SSM SSM

	// Server contains HTTP server settings.
	Server Server
}

// Load reads configuration from environment variables.
// A credential may be supplied directly or as a Secrets Manager ARN; call ResolveSecrets
// to fill credentials given by ARN.
func Load() (*Settings, error) {
	port, err := envInt(EnvPort, DefaultPort)
	if err != nil {
		return nil, err
	}

	cfg := &Settings{
		Connector: Connector{
			Description: envOrDefault(EnvConnectorDescription, DefaultConnectorDescription),
			ID:          envOrDefault(EnvConnectorID, DefaultConnectorID),
			Name:        envOrDefault(EnvConnectorName, DefaultConnectorName),
		},
		DynamoDB: DynamoDB{
			JobsTableName: strings.TrimSpace(os.Getenv(EnvJobsTableName)),
		},
		Graph: Graph{
			BaseURL:         envOrDefault(EnvGraphBaseURL, DefaultGraphBaseURL),
			ClientID:        strings.TrimSpace(os.Getenv(EnvClientID)),
			ClientSecret:    strings.TrimSpace(os.Getenv(EnvClientSecret)),
			ClientSecretARN: strings.TrimSpace(os.Getenv(EnvClientSecretARN)),
			TenantID:        strings.TrimSpace(os.Getenv(EnvTenantID)),
		},
		HubSpot: HubSpot{
			APIKey:          strings.TrimSpace(os.Getenv(EnvHubSpotAPIKey)),
			APIKeySecretARN: strings.TrimSpace(os.Getenv(EnvHubSpotAPIKeySecretARN)),
			BaseURL:         envOrDefault(EnvHubSpotBaseURL, DefaultHubSpotBaseURL),
		},
		SSM: SSM{
			ParameterName: strings.TrimSpace(os.Getenv(EnvSSMParameterName)),
		},
		Server: Server{
			LogLevel: envOrDefault(EnvLogLevel, DefaultLogLevel),
			Port:     port,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveSecrets fills credentials that were configured only by Secrets Manager ARN.
func (s *Settings) ResolveSecrets(ctx context.Context, resolver SecretResolver) error {
	if s.Graph.ClientSecret == "" && s.Graph.ClientSecretARN != "" {
		secret, err := resolver.SecretValue(ctx, s.Graph.ClientSecretARN)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", EnvClientSecretARN, err)
		}
		s.Graph.ClientSecret = secret
	}

	if s.HubSpot.APIKey == "" && s.HubSpot.APIKeySecretARN != "" {
		key, err := resolver.SecretValue(ctx, s.HubSpot.APIKeySecretARN)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", EnvHubSpotAPIKeySecretARN, err)
		}
		s.HubSpot.APIKey = key
	}

	return nil
}

// NeedsSecrets reports whether any credential must be read from Secrets Manager.
func (s *Settings) NeedsSecrets() bool {
	return (s.Graph.ClientSecret == "" && s.Graph.ClientSecretARN != "") ||
		(s.HubSpot.APIKey == "" && s.HubSpot.APIKeySecretARN != "")
}

// SlogLevel returns the configured log level.
func (s *Settings) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(s.Server.LogLevel)
	return level
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func (s *Settings) validate() error {
	var errs []error

	if s.Graph.TenantID == "" {
		errs = append(errs, requiredError(EnvTenantID))
	}
	if s.Graph.ClientID == "" {
		errs = append(errs, requiredError(EnvClientID))
	}
	if s.Graph.ClientSecret == "" && s.Graph.ClientSecretARN == "" {
		errs = append(errs, fmt.Errorf("%s or %s is required", EnvClientSecret, EnvClientSecretARN))
	}
	if s.HubSpot.APIKey == "" && s.HubSpot.APIKeySecretARN == "" {
		errs = append(errs, fmt.Errorf("%s or %s is required", EnvHubSpotAPIKey, EnvHubSpotAPIKeySecretARN))
	}
	if _, err := ParseLogLevel(s.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 65535", EnvPort))
	}

	return errors.Join(errs...)
}

func envInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
