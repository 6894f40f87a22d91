// Package server exposes the connector, sync jobs and HubSpot reads over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
	"github.com/peteski22/hubgraph/internal/jobs"
	"github.com/peteski22/hubgraph/internal/telemetry"
)

// ConnectorService manages the Graph external connection.
type ConnectorService interface {
	Create(ctx context.Context) (*graph.Connection, error)
	CreateSchema(ctx context.Context) (*graph.Schema, error)
	Delete(ctx context.Context) error
	Status(ctx context.Context) (*graph.Connection, error)
}

// CRM reads records from HubSpot.
type CRM interface {
	AccountInfo(ctx context.Context) (*hubspot.AccountInfo, error)
	List(ctx context.Context, objectType hubspot.ObjectType, limit int, after string) (*hubspot.Page, error)
	SearchAll(ctx context.Context, query string, objectTypes []hubspot.ObjectType, limit int) ([]hubspot.ObjectResults, error)
}

// JobQueue schedules sync runs and reports on them.
type JobQueue interface {
	Enqueue(ctx context.Context) (*jobs.Job, error)
	Job(ctx context.Context, id string) (*jobs.Job, error)
	Jobs(ctx context.Context) ([]*jobs.Job, error)
}

// Config holds the dependencies of a Server.
type Config struct {
	// CRM is the HubSpot client.
	CRM CRM

	// Connector manages the Graph external connection.
	Connector ConnectorService

	// HTTPMetrics records request metrics. Nil disables them.
	HTTPMetrics *telemetry.HTTPMetrics

	// Jobs schedules sync runs.
	Jobs JobQueue

	// Logger is the structured logger for request logs.
	Logger *slog.Logger

	// MetricsHandler serves /metrics. The route is not registered when nil.
	MetricsHandler http.Handler

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.CRM == nil {
		errs = append(errs, errors.New("CRM client is required"))
	}
	if c.Connector == nil {
		errs = append(errs, errors.New("connector service is required"))
	}
	if c.Jobs == nil {
		errs = append(errs, errors.New("job queue is required"))
	}
	return errors.Join(errs...)
}

// Server routes API requests to the connector, job queue and CRM.
type Server struct {
	crm            CRM
	connector      ConnectorService
	httpMetrics    *telemetry.HTTPMetrics
	jobs           JobQueue
	logger         *slog.Logger
	metricsHandler http.Handler
	now            func() time.Time
}

// New creates a new Server.
func New(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		crm:            cfg.CRM,
		connector:      cfg.Connector,
		httpMetrics:    cfg.HTTPMetrics,
		jobs:           cfg.Jobs,
		logger:         logger,
		metricsHandler: cfg.MetricsHandler,
		now:            now,
	}, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.httpMetrics.Middleware)
	r.Use(s.loggingMiddleware)

	r.Get("/", s.handleIndex)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/connector", func(r chi.Router) {
			r.Post("/", s.handleCreateConnector)
			r.Delete("/", s.handleDeleteConnector)
			r.Post("/schema", s.handleCreateSchema)
			r.Get("/status", s.handleConnectorStatus)
			r.Post("/sync", s.handleStartSync)
			r.Get("/sync/{jobID}", s.handleSyncJob)
			r.Get("/jobs", s.handleJobs)
		})

		r.Route("/hubspot", func(r chi.Router) {
			r.Get("/search", s.handleSearch)
			r.Get("/account", s.handleAccount)
			for _, objectType := range hubspot.ObjectTypes() {
				r.Get("/"+string(objectType), s.handleList(objectType))
			}
		})
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}

// loggingMiddleware logs each request once it has been served.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
