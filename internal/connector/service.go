// Package connector manages the lifecycle of the Graph external connection that holds HubSpot items.
package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peteski22/hubgraph/internal/graph"
)

// Client defines the Graph connection operations required by the service.
type Client interface {
	// Connection returns the external connection with the given ID.
	Connection(ctx context.Context, connectionID string) (*graph.Connection, error)

	// CreateConnection registers a new external connection.
	CreateConnection(ctx context.Context, conn *graph.Connection) (*graph.Connection, error)

	// CreateSchema registers the property schema for a connection.
	CreateSchema(ctx context.Context, connectionID string, schema *graph.Schema) error

	// DeleteConnection removes an external connection.
	DeleteConnection(ctx context.Context, connectionID string) error

	// UpdateConnection updates an existing connection.
	UpdateConnection(ctx context.Context, connectionID string, conn *graph.Connection) (*graph.Connection, error)
}

// Config holds the required configuration for creating a Service.
type Config struct {
	// Client is the Graph client.
	Client Client

	// Description is the connection description.
	Description string

	// ID is the connection ID.
	ID string

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Name is the connection display name.
	Name string
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Client == nil {
		errs = append(errs, errors.New("graph client is required"))
	}
	if c.ID == "" {
		errs = append(errs, errors.New("connection ID is required"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("connection name is required"))
	}
	return errors.Join(errs...)
}

// Service creates, inspects and removes the external connection.
type Service struct {
	client      Client
	description string
	id          string
	logger      *slog.Logger
	name        string
}

// New creates a new connector service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		client:      cfg.Client,
		description: cfg.Description,
		id:          cfg.ID,
		logger:      logger,
		name:        cfg.Name,
	}, nil
}

// ConnectionID returns the ID of the managed connection.
func (s *Service) ConnectionID() string {
	return s.id
}

// Create registers the connection. If it already exists it is updated instead.
func (s *Service) Create(ctx context.Context) (*graph.Connection, error) {
	conn, err := s.client.CreateConnection(ctx, s.descriptor())
	if err == nil {
		s.logger.Info("created connection", "connection_id", s.id, "state", conn.State)
		return conn, nil
	}

	if !graph.IsAlreadyExists(err) {
		return nil, err
	}

	s.logger.Info("connection already exists, updating", "connection_id", s.id)
	return s.Update(ctx)
}

// CreateSchema registers the HubSpot item schema and returns it.
func (s *Service) CreateSchema(ctx context.Context) (*graph.Schema, error) {
	schema := ItemSchema()
	if err := s.client.CreateSchema(ctx, s.id, schema); err != nil {
		return nil, err
	}

	s.logger.Info("schema registration accepted",
		"connection_id", s.id,
		"properties", len(schema.Properties),
	)
	return schema, nil
}

// Delete removes the connection and every item in it.
func (s *Service) Delete(ctx context.Context) error {
	if err := s.client.DeleteConnection(ctx, s.id); err != nil {
		return err
	}

	s.logger.Info("deleted connection", "connection_id", s.id)
	return nil
}

// Status returns the current state of the connection.
func (s *Service) Status(ctx context.Context) (*graph.Connection, error) {
	return s.client.Connection(ctx, s.id)
}

// Update sets the connection name and description to the configured values.
func (s *Service) Update(ctx context.Context) (*graph.Connection, error) {
	conn, err := s.client.UpdateConnection(ctx, s.id, s.descriptor())
	if err != nil {
		return nil, err
	}

	s.logger.Info("updated connection", "connection_id", s.id)
	return conn, nil
}

// descriptor returns the connection as configured.
func (s *Service) descriptor() *graph.Connection {
	return &graph.Connection{
		Description: s.description,
		ID:          s.id,
		Name:        s.name,
	}
}
