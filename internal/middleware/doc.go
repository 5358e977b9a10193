// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package middleware provides the HTTP middleware shared by the API router.

  - RequestID: request and correlation IDs in the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per route

Both are plain func(http.Handler) http.Handler and plug into chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics labels requests with the chi route pattern
("/api/v1/books/top") rather than the raw path, which keeps label
cardinality bounded. Requests that match no route are labeled "unmatched".

Handlers read the request ID back with logging.RequestIDFromContext, and
logging.Ctx(ctx) returns a logger that already carries it.
*/
package middleware
