// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package api serves the Folio HTTP API on a chi router.

# Endpoints

	GET  /api/v1/books                     catalog listing (?q=&limit=&offset=)
	GET  /api/v1/books/top                 top-rated books (?k=&min_ratings=)
	POST /api/v1/recommendations           {"preferences": [...], "k": n}
	GET  /api/v1/recommendations/similar   books near an indexed title (?title=&k=)
	GET  /api/v1/recommendations/status    service state and counters
	GET  /api/v1/health/live               process is up
	GET  /api/v1/health/ready              artifacts loaded, 503 until then
	GET  /metrics                          Prometheus exposition

# Response Envelope

Every /api/v1 response uses the same envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Failures set success to false and carry an error object with a
machine-readable code:

	{"success": false, "error": {"code": "SERVICE_UNAVAILABLE", "message": "..."}}

# Status Codes

Recommendation errors map to:

  - 400 VALIDATION_ERROR or BAD_REQUEST: malformed body, no usable preferences
  - 404 NOT_FOUND: similarity lookup for a title that is not indexed
  - 503 SERVICE_UNAVAILABLE: artifacts not loaded or failed to load
  - 504 GATEWAY_TIMEOUT: encode and search exceeded the request timeout
  - 500 INTERNAL_ERROR: anything else

# Middleware

In order: request ID, real IP, panic recovery, Prometheus metrics, CORS,
gzip compression, then per-group rate limiting on /api/v1.
*/
package api
