package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcript_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction Metrics
	ExtractionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_extraction_attempts_total",
			Help: "Total number of extraction attempts by strategy",
		},
		[]string{"strategy"},
	)

	ExtractionSuccessesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_extraction_successes_total",
			Help: "Total number of successful extractions by strategy",
		},
		[]string{"strategy"},
	)

	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_extraction_failures_total",
			Help: "Total number of failed extractions by strategy and error kind",
		},
		[]string{"strategy", "kind"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcript_extraction_duration_seconds",
			Help:    "Extraction attempt latency in seconds by strategy",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
		},
		[]string{"strategy"},
	)

	// Token Provider Metrics
	TokenRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_token_requests_total",
			Help: "Total number of proof-of-origin token requests by result",
		},
		[]string{"result"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcript_cache_hits_total",
			Help: "Total number of transcript cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcript_cache_misses_total",
			Help: "Total number of transcript cache misses",
		},
	)

	// Job Metrics
	JobsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcript_jobs_published_total",
			Help: "Total number of transcript jobs published to the queue",
		},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_jobs_processed_total",
			Help: "Total number of transcript jobs processed by outcome",
		},
		[]string{"outcome"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcript_queue_depth",
			Help: "Current number of messages waiting in the job queue",
		},
	)
)
