// Package telemetry provides OpenTelemetry metrics for the sync engine and HTTP API.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter.
const SyncMetricsMeterName = "github.com/peteski22/hubgraph/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
type SyncMetrics struct {
	itemsSynced    metric.Int64Counter
	recordFailures metric.Int64Counter
	syncDuration   metric.Float64Histogram
	typeFailures   metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	itemsSynced, err := meter.Int64Counter(
		"hubgraph_sync_items_total",
		metric.WithDescription("Number of items upserted to the external connection"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	recordFailures, err := meter.Int64Counter(
		"hubgraph_sync_record_failures_total",
		metric.WithDescription("Number of records that failed to transform or upsert"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	syncDuration, err := meter.Float64Histogram(
		"hubgraph_sync_duration_seconds",
		metric.WithDescription("Duration of full sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600),
	)
	if err != nil {
		return nil, err
	}

	typeFailures, err := meter.Int64Counter(
		"hubgraph_sync_type_failures_total",
		metric.WithDescription("Number of object types whose sync aborted"),
		metric.WithUnit("{type}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		itemsSynced:    itemsSynced,
		recordFailures: recordFailures,
		syncDuration:   syncDuration,
		typeFailures:   typeFailures,
	}, nil
}

// RecordItemsSynced adds count successfully upserted items for an object type.
func (m *SyncMetrics) RecordItemsSynced(ctx context.Context, objectType string, count int) {
	if m == nil || m.itemsSynced == nil {
		return
	}
	m.itemsSynced.Add(ctx, int64(count), metric.WithAttributes(attribute.String("object_type", objectType)))
}

// RecordRecordFailure counts one failed record for an object type.
func (m *SyncMetrics) RecordRecordFailure(ctx context.Context, objectType string, stage string) {
	if m == nil || m.recordFailures == nil {
		return
	}
	m.recordFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("object_type", objectType),
		attribute.String("stage", stage),
	))
}

// RecordSyncDuration records the duration of a full sync run.
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordTypeFailure counts one aborted object type.
func (m *SyncMetrics) RecordTypeFailure(ctx context.Context, objectType string) {
	if m == nil || m.typeFailures == nil {
		return
	}
	m.typeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("object_type", objectType)))
}
