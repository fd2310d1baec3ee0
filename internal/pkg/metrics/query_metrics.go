// Package metrics defines the OpenTelemetry instruments for the query pipeline.
// They record through the global meter provider, a no-op unless a host installs one.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("shai/query")

// QueryMetrics collects counters for generated and classified commands.
type QueryMetrics struct {
	queries         metric.Int64Counter
	cacheHits       metric.Int64Counter
	parseFailures   metric.Int64Counter
	dangerous       metric.Int64Counter
	executions      metric.Int64Counter
	backendDuration metric.Float64Histogram
}

// NewQueryMetrics creates the instruments.
func NewQueryMetrics() (*QueryMetrics, error) {
	queries, err := meter.Int64Counter(
		"shai.queries",
		metric.WithDescription("Total number of queries sent through the pipeline"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"shai.cache.hits",
		metric.WithDescription("Replies served from the response cache"),
		metric.WithUnit("{reply}"),
	)
	if err != nil {
		return nil, err
	}

	parseFailures, err := meter.Int64Counter(
		"shai.parse.failures",
		metric.WithDescription("Replies with no command-like content"),
		metric.WithUnit("{reply}"),
	)
	if err != nil {
		return nil, err
	}

	dangerous, err := meter.Int64Counter(
		"shai.commands.dangerous",
		metric.WithDescription("Commands the classifier flagged as dangerous"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, err
	}

	executions, err := meter.Int64Counter(
		"shai.commands.executed",
		metric.WithDescription("Commands handed to the shell"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, err
	}

	backendDuration, err := meter.Float64Histogram(
		"shai.backend.duration",
		metric.WithDescription("Backend generate latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &QueryMetrics{
		queries:         queries,
		cacheHits:       cacheHits,
		parseFailures:   parseFailures,
		dangerous:       dangerous,
		executions:      executions,
		backendDuration: backendDuration,
	}, nil
}

// RecordQuery counts one query for provider.
func (m *QueryMetrics) RecordQuery(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordCacheHit counts a reply served from cache.
func (m *QueryMetrics) RecordCacheHit(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordBackend records one backend round trip.
func (m *QueryMetrics) RecordBackend(ctx context.Context, provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.backendDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("error", err != nil),
	))
}

// RecordParseFailure counts a reply that held no command.
func (m *QueryMetrics) RecordParseFailure(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.parseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordDangerous counts a dangerous verdict by category.
func (m *QueryMetrics) RecordDangerous(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.dangerous.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// RecordExecution counts a command run and its exit code.
func (m *QueryMetrics) RecordExecution(ctx context.Context, exitCode int) {
	if m == nil {
		return
	}
	m.executions.Add(ctx, 1, metric.WithAttributes(attribute.Int("exit_code", exitCode)))
}
