// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LinkMetrics tracks link collection activity: creations, deletions, and the
// current collection size.
type LinkMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	linkCreatedTotal   *Counter
	linkDeletedTotal   *Counter
	deleteFailureTotal *Counter

	// Gauge metrics (point-in-time values)
	linksTotal *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// LinkCountProvider reports the number of stored links for periodic gauge
// collection. Link repositories satisfy this interface.
type LinkCountProvider interface {
	Count(ctx context.Context) (int64, error)
}

// LinkMetricsConfig holds configuration for link metrics.
type LinkMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewLinkMetrics creates a new LinkMetrics instance.
func NewLinkMetrics(cfg LinkMetricsConfig) (*LinkMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LinkMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	var err error

	lm.linkCreatedTotal, err = NewCounter(
		cfg.Meter,
		"linkdeck_link_created_total",
		"Total number of links created",
		"{links}",
	)
	if err != nil {
		return nil, err
	}

	lm.linkDeletedTotal, err = NewCounter(
		cfg.Meter,
		"linkdeck_link_deleted_total",
		"Total number of links deleted",
		"{links}",
	)
	if err != nil {
		return nil, err
	}

	lm.deleteFailureTotal, err = NewCounter(
		cfg.Meter,
		"linkdeck_link_delete_failures_total",
		"Total number of failed link deletions",
		"{failures}",
	)
	if err != nil {
		return nil, err
	}

	lm.linksTotal, err = NewGauge(
		cfg.Meter,
		"linkdeck_links_total",
		"Current number of stored links",
		"{links}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordLinkCreated records a link creation event.
// This should be called from the application layer when a link is created.
func (lm *LinkMetrics) RecordLinkCreated(ctx context.Context) {
	lm.linkCreatedTotal.Inc(ctx)
}

// RecordLinkDeleted records a link deletion event.
func (lm *LinkMetrics) RecordLinkDeleted(ctx context.Context) {
	lm.linkDeletedTotal.Inc(ctx)
}

// RecordDeleteFailure records a failed link deletion.
func (lm *LinkMetrics) RecordDeleteFailure(ctx context.Context) {
	lm.deleteFailureTotal.Inc(ctx)
}

// RecordLinkCount records the current collection size.
func (lm *LinkMetrics) RecordLinkCount(ctx context.Context, count int64) {
	lm.linksTotal.Record(ctx, count)
}

// StartPeriodicCollection starts periodic collection of the link count gauge.
// It is non-blocking; use Stop() to stop collection.
func (lm *LinkMetrics) StartPeriodicCollection(ctx context.Context, provider LinkCountProvider, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go lm.runPeriodicCollection(ctx, provider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (lm *LinkMetrics) runPeriodicCollection(ctx context.Context, provider LinkCountProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	lm.collectLinkCount(ctx, provider)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic link metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic link metrics collection")
			return
		case <-ticker.C:
			lm.collectLinkCount(ctx, provider)
		}
	}
}

// collectLinkCount reads the current link count from the provider.
func (lm *LinkMetrics) collectLinkCount(ctx context.Context, provider LinkCountProvider) {
	if provider == nil {
		lm.logger.Debug("No link count provider configured, skipping collection")
		return
	}

	count, err := provider.Count(ctx)
	if err != nil {
		lm.logger.Warn("Failed to collect link count", zap.Error(err))
		return
	}

	lm.RecordLinkCount(ctx, count)
}

// Stop stops the periodic collection.
func (lm *LinkMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLinkMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
