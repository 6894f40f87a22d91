package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
	"github.com/peteski22/hubgraph/internal/telemetry"
)

// Record failure stages reported in logs and metrics.
const (
	stageTransform = "transform"
	stageUpsert    = "upsert"
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// ConnectionID is the Graph external connection to write items to.
	ConnectionID string

	// Destination is the Graph client. Ignored when DryRun is set.
	Destination Destination

	// DryRun logs items instead of writing them to Graph.
	DryRun bool

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Metrics records sync instruments. Nil disables metrics.
	Metrics *telemetry.SyncMetrics

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// PageSize is the number of records fetched per page. Defaults to hubspot.MaxPageSize.
	PageSize int

	// Source is the HubSpot client.
	Source Source

	// StateStore records completed runs. Optional.
	StateStore StateStore

	// TenantID is the Azure AD tenant whose users may see the items.
	TenantID string
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.ConnectionID == "" {
		errs = append(errs, errors.New("connection ID is required"))
	}
	if c.Destination == nil && !c.DryRun {
		errs = append(errs, errors.New("destination is required"))
	}
	if c.Source == nil {
		errs = append(errs, errors.New("source is required"))
	}
	if c.TenantID == "" {
		errs = append(errs, errors.New("tenant ID is required"))
	}
	if c.PageSize < 0 || c.PageSize > hubspot.MaxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d", hubspot.MaxPageSize))
	}
	return errors.Join(errs...)
}

// Service drives full sync runs from HubSpot into Graph.
type Service struct {
	acl          []graph.ACL
	connectionID string
	destination  Destination
	dryRun       *dryRunDestination
	logger       *slog.Logger
	metrics      *telemetry.SyncMetrics
	now          func() time.Time
	pageSize     int
	source       Source
	stateStore   StateStore
}

// typeResult is the outcome of syncing one object type.
type typeResult struct {
	failed int
	synced int
}

// New creates a new sync service.
func New(cfg Config) (*Service, error) {
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

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = hubspot.MaxPageSize
	}

	s := &Service{
		acl: []graph.ACL{{
			AccessType: graph.ACLAccessTypeGrant,
			Type:       graph.ACLTypeEveryone,
			Value:      cfg.TenantID,
		}},
		connectionID: cfg.ConnectionID,
		destination:  cfg.Destination,
		logger:       logger,
		metrics:      cfg.Metrics,
		now:          now,
		pageSize:     pageSize,
		source:       cfg.Source,
		stateStore:   cfg.StateStore,
	}

	if cfg.DryRun {
		s.dryRun = newDryRunDestination(logger)
		s.destination = s.dryRun
	}

	return s, nil
}

// Run executes a full sync across every object type in order.
// A type that fails is counted in Stats.Errors and does not stop later types.
// The returned error reports only a failure to record the run.
func (s *Service) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		DryRun:    s.dryRun != nil,
		StartedAt: s.now().UTC(),
	}

	s.logPreviousRun(ctx)
	s.logger.Info("starting sync", "connection_id", s.connectionID, "dry_run", stats.DryRun)

	for _, objectType := range hubspot.ObjectTypes() {
		s.logger.Info("syncing object type", "object_type", objectType)

		result, err := s.syncType(ctx, objectType)
		stats.RecordErrors += result.failed
		if err != nil {
			stats.Errors++
			s.metrics.RecordTypeFailure(ctx, string(objectType))
			s.logger.Error("object type sync failed",
				"object_type", objectType,
				"synced", result.synced,
				"error", err,
			)
			continue
		}

		stats.setCount(objectType, s.countFor(ctx, objectType, result.synced))
	}

	stats.FinishedAt = s.now().UTC()
	s.metrics.RecordSyncDuration(ctx, stats.Duration(), stats.Errors == 0)

	attrs := []any{
		"contacts", stats.Contacts,
		"companies", stats.Companies,
		"deals", stats.Deals,
		"tickets", stats.Tickets,
		"errors", stats.Errors,
		"record_errors", stats.RecordErrors,
		"duration", stats.Duration(),
	}
	if s.dryRun != nil {
		attrs = append(attrs, "dry_run_upserts", s.dryRun.upserts())
	}
	s.logger.Info("sync completed", attrs...)

	if s.stateStore == nil || stats.DryRun {
		return stats, nil
	}
	if err := s.stateStore.SaveRun(ctx, stats); err != nil {
		return stats, fmt.Errorf("saving run state: %w", err)
	}

	return stats, nil
}

// SyncType syncs every record of one object type and returns the number of items upserted.
func (s *Service) SyncType(ctx context.Context, objectType hubspot.ObjectType) (int, error) {
	result, err := s.syncType(ctx, objectType)
	return result.synced, err
}

// countFor returns the source total for a type, falling back to the synced count.
func (s *Service) countFor(ctx context.Context, objectType hubspot.ObjectType, synced int) int {
	count, err := s.source.Count(ctx, objectType)
	if err != nil {
		s.logger.Warn("failed to count records, using synced count",
			"object_type", objectType,
			"synced", synced,
			"error", err,
		)
		return synced
	}
	return count
}

// logPreviousRun logs the outcome of the last recorded run, if any.
func (s *Service) logPreviousRun(ctx context.Context) {
	if s.stateStore == nil {
		return
	}

	last, err := s.stateStore.LastRun(ctx)
	if err != nil {
		s.logger.Warn("failed to read previous run state", "error", err)
		return
	}
	if last == nil {
		s.logger.Info("no previous sync recorded")
		return
	}

	s.logger.Info("previous sync",
		"finished_at", last.FinishedAt,
		"errors", last.Errors,
		"record_errors", last.RecordErrors,
	)
}

// syncType walks every page of one object type, upserting each record in order.
// Records that fail to transform or upsert are logged and skipped.
func (s *Service) syncType(ctx context.Context, objectType hubspot.ObjectType) (typeResult, error) {
	var result typeResult
	var cursor string

	for page := 1; ; page++ {
		records, err := s.source.List(ctx, objectType, s.pageSize, cursor)
		if err != nil {
			return result, fmt.Errorf("fetching %s page %d: %w", objectType, page, err)
		}

		pageSynced := 0
		for _, record := range records.Results {
			if err := s.syncRecord(ctx, objectType, record); err != nil {
				result.failed++
				continue
			}
			pageSynced++
		}
		result.synced += pageSynced
		s.metrics.RecordItemsSynced(ctx, string(objectType), pageSynced)

		s.logger.Info("synced page",
			"object_type", objectType,
			"page", page,
			"records", len(records.Results),
			"synced", pageSynced,
			"total_synced", result.synced,
		)

		cursor = records.NextCursor()
		if cursor == "" {
			return result, nil
		}
	}
}

// syncRecord transforms and upserts a single record, logging any failure.
func (s *Service) syncRecord(ctx context.Context, objectType hubspot.ObjectType, record hubspot.Object) error {
	item, err := hubspot.ToExternalItem(objectType, record, s.now())
	if err != nil {
		s.recordFailure(ctx, objectType, record.ID, stageTransform, err)
		return err
	}
	item.ACL = s.acl

	if err := s.destination.UpsertItem(ctx, s.connectionID, item); err != nil {
		s.recordFailure(ctx, objectType, record.ID, stageUpsert, err)
		return err
	}

	return nil
}

// recordFailure logs and counts a skipped record.
func (s *Service) recordFailure(
	ctx context.Context,
	objectType hubspot.ObjectType,
	recordID string,
	stage string,
	err error,
) {
	s.metrics.RecordRecordFailure(ctx, string(objectType), stage)
	s.logger.Warn("failed to sync record",
		"object_type", objectType,
		"record_id", recordID,
		"stage", stage,
		"error", err,
	)
}
