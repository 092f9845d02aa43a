// Package metrics provides centralized Prometheus metrics for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track the health/metrics server's own request patterns.
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests to the health/metrics server",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Ingestion metrics track source fetching and content enhancement (§4.1).
var (
	// ArticlesFetchedTotal counts articles fetched from each source.
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_fetched_total",
			Help: "Total number of articles fetched from sources",
		},
		[]string{"source_id"},
	)

	// ArticlesFilteredTotal counts articles dropped before grouping, by reason.
	ArticlesFilteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_filtered_total",
			Help: "Total number of fetched articles dropped before grouping",
		},
		[]string{"reason"}, // reason: too_old, missing_required_field
	)

	// FeedFetchDuration measures time to fetch and parse a source.
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source_id"},
	)

	// FeedFetchErrors counts errors while fetching a source.
	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of source fetch errors",
		},
		[]string{"source_id", "error_type"},
	)

	// ContentFetchAttemptsTotal counts content enhancement fetch attempts by result.
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content enhancement fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch and enhance article content.
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch and enhance article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// ContentCacheResultTotal counts content cache lookups by outcome.
	ContentCacheResultTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_result_total",
			Help: "Total number of content cache lookups by outcome",
		},
		[]string{"result"}, // result: hit, miss, error
	)
)

// Grouping metrics track clustering output (§4.2).
var (
	// GroupsFormedTotal counts groups formed across all runs.
	GroupsFormedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groups_formed_total",
			Help: "Total number of groups formed across all runs",
		},
	)

	// GroupsIneligibleTotal counts candidate groups dropped below the eligibility threshold.
	GroupsIneligibleTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groups_ineligible_total",
			Help: "Total number of candidate groups dropped for insufficient size or source diversity",
		},
	)

	// GroupSize observes the member count of each eligible group.
	GroupSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "group_size",
			Help:    "Number of member articles per eligible group",
			Buckets: []float64{2, 3, 4, 5, 8, 13, 21, 34},
		},
	)
)

// Summarization metrics track the synthesis stage (§4.4).
var (
	// SummariesGeneratedTotal counts summaries by final validation outcome.
	SummariesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summaries_generated_total",
			Help: "Total number of summaries produced, by validation outcome",
		},
		[]string{"status"}, // status: accepted, rejected
	)

	// SummarizationDuration measures time spent producing a validated summary for a group.
	SummarizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarization_duration_seconds",
			Help:    "Time taken to produce a validated summary for a group",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"model"},
	)

	// SummaryRetriesTotal counts regeneration attempts issued after a validation failure.
	SummaryRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_retries_total",
			Help: "Total number of summary regeneration attempts after a validation failure",
		},
		[]string{"reason"}, // reason: length, citation_coverage, copied_span, temperature, provider_error
	)
)

// Bias detection metrics track the transparency stage (§4.5).
var (
	// BiasIndicatorsTotal counts indicators found, by rule family.
	BiasIndicatorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bias_indicators_total",
			Help: "Total number of bias indicators detected, by rule kind",
		},
		[]string{"kind"}, // kind: loaded_language, attribution, framing, omission
	)
)

// Run metrics track whole pipeline invocations (§6).
var (
	// RunsTotal counts completed pipeline runs by degraded status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Total number of completed pipeline runs",
		},
		[]string{"degraded"}, // degraded: true, false
	)

	// RunDuration measures wall-clock time for a full pipeline run.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Wall-clock duration of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

// RecordHTTPRequest records a request served by the health/metrics server.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
