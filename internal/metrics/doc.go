// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto at
package initialization and are served by promhttp at /metrics.

# Available Metrics

API Metrics:
  - folio_api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status
  - folio_api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - folio_api_active_requests: In-flight requests (gauge)
  - folio_api_rate_limit_hits_total: Rate limited requests (counter)

Pipeline Metrics:
  - folio_pipeline_batches_total: Batches by result (counter)
    Labels: result (encoded, skipped, failed)
  - folio_pipeline_records_encoded_total: Records encoded (counter)
  - folio_pipeline_batch_duration_seconds: Encode and persist time per batch (histogram)
  - folio_pipeline_merged_rows: Rows in the last merged store (gauge)
  - folio_index_build_duration_seconds: Index build time (histogram)
  - folio_index_vectors: Vectors in the current index (gauge)

Encoder Metrics:
  - folio_encoder_requests_total: Encode calls (counter)
    Labels: provider, result
  - folio_encoder_request_duration_seconds: Encode latency (histogram)
    Labels: provider
  - folio_encoder_loads_total: Encoder constructions (counter)
    Labels: provider

Circuit Breaker Metrics:
  - folio_circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - folio_circuit_breaker_requests_total: Requests (counter)
    Labels: name, result
  - folio_circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: name, from_state, to_state

Recommendation Metrics:
  - folio_recommend_requests_total: Requests by outcome (counter)
    Labels: outcome (success, client_error, timeout, uninitialized, error)
  - folio_recommend_duration_seconds: Latency of successful requests (histogram)
  - folio_recommend_metadata_gaps_total: Indexed titles missing from the catalog (counter)
  - folio_recommend_cache_hits_total / folio_recommend_cache_misses_total (counters)
  - folio_recommend_init_duration_seconds: Last initialization time (gauge)
  - folio_recommend_ready: 1 once initialized (gauge)

Catalog Metrics:
  - folio_catalog_books: Books loaded (gauge)
  - folio_catalog_duplicate_titles: Duplicate rows dropped (gauge)

# Example Alerts

	groups:
	  - name: folio
	    rules:
	      - alert: FolioNotReady
	        expr: folio_recommend_ready == 0
	        for: 5m
	      - alert: FolioMetadataGaps
	        expr: rate(folio_recommend_metadata_gaps_total[10m]) > 0
	        for: 30m
	      - alert: EncoderCircuitOpen
	        expr: folio_circuit_breaker_state == 2
	        for: 1m

# Thread Safety

All helpers are safe for concurrent use; the underlying collectors are.
*/
package metrics
