// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the recommend and encoder metrics.
const (
	OutcomeSuccess       = "success"
	OutcomeClientError   = "client_error"
	OutcomeTimeout       = "timeout"
	OutcomeUninitialized = "uninitialized"
	OutcomeError         = "error"
)

// Batch result labels.
const (
	BatchEncoded = "encoded"
	BatchSkipped = "skipped"
	BatchFailed  = "failed"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Pipeline Metrics
	PipelineBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_pipeline_batches_total",
			Help: "Total number of embedding batches by result",
		},
		[]string{"result"}, // encoded, skipped, failed
	)

	PipelineRecordsEncoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_pipeline_records_encoded_total",
			Help: "Total number of records encoded into vectors",
		},
	)

	PipelineBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_pipeline_batch_duration_seconds",
			Help:    "Duration of encoding and persisting one batch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	PipelineMergedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_pipeline_merged_rows",
			Help: "Number of rows in the last merged embedding store",
		},
	)

	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_index_build_duration_seconds",
			Help:    "Duration of vector index builds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexVectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_index_vectors",
			Help: "Number of vectors in the last built or loaded index",
		},
	)

	// Encoder Metrics
	EncoderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_encoder_requests_total",
			Help: "Total number of encode calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	EncoderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_encoder_request_duration_seconds",
			Help:    "Duration of encode calls in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"provider"},
	)

	EncoderLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_encoder_loads_total",
			Help: "Total number of encoder constructions",
		},
		[]string{"provider"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	RecommendMetadataGaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_recommend_metadata_gaps_total",
			Help: "Total number of indexed titles missing from the catalog at query time",
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_recommend_cache_hits_total",
			Help: "Total number of recommendation responses served from cache",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_recommend_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	RecommendInitDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_recommend_init_duration_seconds",
			Help: "Duration of the last query service initialization",
		},
	)

	RecommendReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_recommend_ready",
			Help: "1 when the query service is initialized, 0 otherwise",
		},
	)

	// Catalog Metrics
	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_catalog_books",
			Help: "Number of books in the loaded catalog",
		},
	)

	CatalogDuplicates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_catalog_duplicate_titles",
			Help: "Number of catalog rows dropped as duplicate titles",
		},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBatch records one batch outcome. Records and duration are only
// observed for encoded batches.
func RecordBatch(result string, records int, duration time.Duration) {
	PipelineBatches.WithLabelValues(result).Inc()
	if result == BatchEncoded {
		PipelineRecordsEncoded.Add(float64(records))
		PipelineBatchDuration.Observe(duration.Seconds())
	}
}

// RecordIndexBuild records a completed index build.
func RecordIndexBuild(vectors int, duration time.Duration) {
	IndexBuildDuration.Observe(duration.Seconds())
	IndexVectors.Set(float64(vectors))
}

// RecordEncoderCall records one encode call.
func RecordEncoderCall(provider string, duration time.Duration, err error) {
	result := OutcomeSuccess
	if err != nil {
		result = OutcomeError
	}
	EncoderRequests.WithLabelValues(provider, result).Inc()
	EncoderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordRecommend records a finished recommendation request.
func RecordRecommend(outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		RecommendDuration.Observe(duration.Seconds())
	}
}

// RecordMetadataGap counts one identifier that had no catalog entry.
func RecordMetadataGap() {
	RecommendMetadataGaps.Inc()
}

// RecordRecommendCache records a response cache lookup.
func RecordRecommendCache(hit bool) {
	if hit {
		RecommendCacheHits.Inc()
	} else {
		RecommendCacheMisses.Inc()
	}
}

// RecordInit records a query service initialization attempt.
func RecordInit(duration time.Duration, err error) {
	RecommendInitDuration.Set(duration.Seconds())
	if err != nil {
		RecommendReady.Set(0)
		return
	}
	RecommendReady.Set(1)
}

// SetCatalogStats publishes catalog size gauges.
func SetCatalogStats(books, duplicates int) {
	CatalogBooks.Set(float64(books))
	CatalogDuplicates.Set(float64(duplicates))
}
