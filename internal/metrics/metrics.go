// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

// Package metrics defines the Prometheus instrumentation for Marquee.
//
// Collectors are registered on the default registry through promauto and are
// exposed by the API layer on /metrics. Callers use the Record* helpers rather
// than touching the vectors directly.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Recommendations
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Recommendation requests by outcome (personalized, fallback, error)",
		},
		[]string{"outcome"},
	)

	RecommendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_strategy_duration_seconds",
			Help:    "Time spent in each recommendation strategy",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RecommendStrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_strategy_failures_total",
			Help: "Sub-strategy failures that were absorbed by the hybrid engine",
		},
		[]string{"strategy"},
	)

	RecommendStrategyItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_strategy_items_total",
			Help: "Items contributed by each strategy before merge",
		},
		[]string{"strategy"},
	)

	SimilarityComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_similarity_compute_duration_seconds",
			Help:    "Duration of user similarity matrix computation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	SimilarityMatrixUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_similarity_matrix_users",
			Help: "Users present in the last computed similarity matrix",
		},
	)

	BatchUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_batch_users_total",
			Help: "Users processed by batch generation",
		},
		[]string{"result"},
	)

	BatchLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_batch_last_success_timestamp",
			Help: "Unix timestamp of the last completed batch generation",
		},
	)

	RecommendationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_records_written_total",
			Help: "Stored recommendation records by type",
		},
		[]string{"type"},
	)

	RecommendationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_records_expired_total",
			Help: "Expired recommendation records removed by cleanup",
		},
	)

	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Catalog sync
	CatalogSyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_duration_seconds",
			Help:    "Duration of TMDb catalog sync runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	CatalogSyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_items_total",
			Help: "Movies upserted by catalog sync",
		},
		[]string{"source"},
	)

	CatalogSyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_errors_total",
			Help: "Catalog sync failures",
		},
		[]string{"source"},
	)

	TMDbRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Requests sent to the TMDb API by status code",
		},
		[]string{"endpoint", "status_code"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Interaction events published by result",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Interaction events consumed by result",
		},
		[]string{"topic", "result"},
	)

	// Scheduled jobs
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Scheduled job executions by result",
		},
		[]string{"job", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_job_duration_seconds",
			Help:    "Scheduled job duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"job"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStrategy records the duration and contribution of one strategy run.
func RecordStrategy(strategy string, duration time.Duration, items int, err error) {
	RecommendLatency.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		RecommendStrategyFailures.WithLabelValues(strategy).Inc()
		return
	}
	RecommendStrategyItems.WithLabelValues(strategy).Add(float64(items))
}

// RecordRecommendRequest counts a request outcome: personalized, fallback or error.
func RecordRecommendRequest(outcome string) {
	RecommendRequests.WithLabelValues(outcome).Inc()
}

// RecordSimilarityCompute records a similarity matrix computation.
func RecordSimilarityCompute(duration time.Duration, users int) {
	SimilarityComputeDuration.Observe(duration.Seconds())
	SimilarityMatrixUsers.Set(float64(users))
}

// RecordBatch records the outcome of a batch generation run.
func RecordBatch(succeeded, failed int) {
	BatchUsers.WithLabelValues("success").Add(float64(succeeded))
	BatchUsers.WithLabelValues("failure").Add(float64(failed))
	if failed == 0 {
		BatchLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordRecommendationsWritten counts stored records for a type.
func RecordRecommendationsWritten(recType string, n int) {
	RecommendationsWritten.WithLabelValues(recType).Add(float64(n))
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCatalogSync records a catalog sync run.
func RecordCatalogSync(source string, duration time.Duration, items int, err error) {
	CatalogSyncDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		CatalogSyncErrors.WithLabelValues(source).Inc()
		return
	}
	CatalogSyncItems.WithLabelValues(source).Add(float64(items))
}

// RecordTMDbRequest records one upstream API call.
func RecordTMDbRequest(endpoint string, statusCode int) {
	TMDbRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordEventConsumed records a handled message.
func RecordEventConsumed(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordJobRun records a scheduled job execution.
func RecordJobRun(job string, duration time.Duration, err error) {
	JobRuns.WithLabelValues(job, resultLabel(err)).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
