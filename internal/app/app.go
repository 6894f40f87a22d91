// Package app wires the HubSpot and Graph clients into the connector and sync services.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peteski22/hubgraph/internal/config"
	"github.com/peteski22/hubgraph/internal/connector"
	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
	hubsync "github.com/peteski22/hubgraph/internal/sync"
	"github.com/peteski22/hubgraph/internal/telemetry"
)

// Config holds the configuration for building an App.
type Config struct {
	// GraphOptions are appended to the options derived from Settings.
	GraphOptions []graph.Option

	// HubSpotOptions are appended to the options derived from Settings.
	HubSpotOptions []hubspot.Option

	// Logger is the structured logger shared by every component.
	Logger *slog.Logger

	// Metrics records sync instruments. Nil disables metrics.
	Metrics *telemetry.SyncMetrics

	// Settings is the loaded application configuration.
	Settings *config.Settings
}

// App holds the clients and services built once at startup.
type App struct {
	// Connector manages the Graph external connection lifecycle.
	Connector *connector.Service

	// Graph is the Microsoft Graph client.
	Graph *graph.Client

	// HubSpot is the HubSpot CRM client.
	HubSpot *hubspot.Client

	logger   *slog.Logger
	metrics  *telemetry.SyncMetrics
	settings *config.Settings
}

// New builds the clients and the connector service from settings.
func New(cfg Config) (*App, error) {
	if cfg.Settings == nil {
		return nil, errors.New("settings are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := cfg.Settings

	hubspotClient, err := hubspot.NewClient(s.HubSpot.APIKey, append([]hubspot.Option{
		hubspot.WithBaseURL(s.HubSpot.BaseURL),
		hubspot.WithLogger(logger),
	}, cfg.HubSpotOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("creating HubSpot client: %w", err)
	}

	graphClient, err := graph.NewClient(graph.Config{
		ClientID:     s.Graph.ClientID,
		ClientSecret: s.Graph.ClientSecret,
		TenantID:     s.Graph.TenantID,
	}, append([]graph.Option{graph.WithBaseURL(s.Graph.BaseURL)}, cfg.GraphOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("creating Graph client: %w", err)
	}

	connectorService, err := connector.New(connector.Config{
		Client:      graphClient,
		Description: s.Connector.Description,
		ID:          s.Connector.ID,
		Logger:      logger,
		Name:        s.Connector.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("creating connector service: %w", err)
	}

	return &App{
		Connector: connectorService,
		Graph:     graphClient,
		HubSpot:   hubspotClient,
		logger:    logger,
		metrics:   cfg.Metrics,
		settings:  s,
	}, nil
}

// SyncService builds a sync service writing to the configured connection.
// store may be nil, in which case runs are not recorded.
func (a *App) SyncService(dryRun bool, store hubsync.StateStore) (*hubsync.Service, error) {
	svc, err := hubsync.New(hubsync.Config{
		ConnectionID: a.settings.Connector.ID,
		Destination:  a.Graph,
		DryRun:       dryRun,
		Logger:       a.logger,
		Metrics:      a.metrics,
		Source:       a.HubSpot,
		StateStore:   store,
		TenantID:     a.settings.Graph.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync service: %w", err)
	}
	return svc, nil
}
