// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides catalog sync metrics. It tracks run outcomes, per-item
// reconcile results, and traffic against the remote platform API.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	runTotal             *Counter
	itemTotal            *Counter
	platformRequestTotal *Counter

	// Histogram metrics (distributions)
	runDuration             *Histogram
	platformRequestDuration *Histogram

	// Gauge metrics (point-in-time values)
	catalogProductCount *Gauge
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	// Run metrics
	sm.runTotal, err = NewCounter(
		cfg.Meter,
		"shopsync_sync_run_total",
		"Total number of completed sync runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "shopsync_sync_run_duration_seconds",
		Description: "Wall-clock duration of sync runs",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// Item metrics
	sm.itemTotal, err = NewCounter(
		cfg.Meter,
		"shopsync_sync_item_total",
		"Total number of products handled by sync runs, by result",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	// Remote platform API metrics
	sm.platformRequestTotal, err = NewCounter(
		cfg.Meter,
		"shopsync_platform_request_total",
		"Total number of remote platform API requests",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	sm.platformRequestDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "shopsync_platform_request_duration_seconds",
		Description: "Latency of remote platform API requests",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// Catalog gauge metrics
	sm.catalogProductCount, err = NewGauge(
		cfg.Meter,
		"shopsync_catalog_product_count",
		"Number of source products considered by the most recent sync run",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Run Metrics
// =============================================================================

// ItemResult labels the per-product outcome of a reconcile step.
type ItemResult string

const (
	ItemResultCreated ItemResult = "created"
	ItemResultUpdated ItemResult = "updated"
	ItemResultDeleted ItemResult = "deleted"
	ItemResultSkipped ItemResult = "skipped"
	ItemResultFailed  ItemResult = "failed"
)

// RecordRun records a completed sync run. Mode and status carry the run's
// domain values (e.g. "FULL", "SUCCESS").
func (sm *SyncMetrics) RecordRun(ctx context.Context, mode, status string, duration time.Duration) {
	sm.runTotal.Inc(ctx,
		AttrRunMode.String(mode),
		AttrRunStatus.String(status),
	)
	sm.runDuration.RecordDuration(ctx, duration,
		AttrRunMode.String(mode),
	)
}

// RecordRunItems records the per-item outcome counters of a completed run.
// Zero counters are not recorded to keep label series sparse.
func (sm *SyncMetrics) RecordRunItems(ctx context.Context, mode string, created, updated, deleted, skipped, failed int) {
	results := []struct {
		result ItemResult
		count  int
	}{
		{ItemResultCreated, created},
		{ItemResultUpdated, updated},
		{ItemResultDeleted, deleted},
		{ItemResultSkipped, skipped},
		{ItemResultFailed, failed},
	}
	for _, r := range results {
		if r.count == 0 {
			continue
		}
		sm.itemTotal.Add(ctx, int64(r.count),
			AttrRunMode.String(mode),
			AttrItemResult.String(string(r.result)),
		)
	}
}

// RecordCatalogSize records how many source products the most recent run saw.
func (sm *SyncMetrics) RecordCatalogSize(ctx context.Context, count int64) {
	sm.catalogProductCount.Record(ctx, count)
}

// =============================================================================
// Remote Platform Metrics
// =============================================================================

// RequestStatus labels the outcome of a remote platform API request.
type RequestStatus string

const (
	RequestStatusSuccess   RequestStatus = "success"
	RequestStatusThrottled RequestStatus = "throttled"
	RequestStatusError     RequestStatus = "error"
)

// RecordPlatformRequest records one HTTP exchange with the remote platform.
// Resource should be the ID-normalized API path (e.g. "products/:id.json") to
// keep label cardinality bounded.
func (sm *SyncMetrics) RecordPlatformRequest(ctx context.Context, method, resource string, status RequestStatus, duration time.Duration) {
	sm.platformRequestTotal.Inc(ctx,
		AttrHTTPMethod.String(method),
		AttrPlatformResource.String(resource),
		AttrPlatformStatus.String(string(status)),
	)
	sm.platformRequestDuration.RecordDuration(ctx, duration,
		AttrHTTPMethod.String(method),
		AttrPlatformResource.String(resource),
	)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
