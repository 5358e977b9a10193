// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package main runs the Folio recommendation server.

The server reads artifacts produced by the folio CLI (embeddings.bin, ids.bin
and index.bin) together with the book catalog CSV and answers recommendation
queries over HTTP.

# Startup

 1. .env file (optional), then configuration via koanf (defaults, YAML file, environment)
 2. Artifact store (file or badger backend)
 3. Catalog CSV, loaded once and shared by the API and the recommender
 4. Recommendation service (artifacts are loaded lazily or by the warm-up service)
 5. Supervisor tree with the warm-up service and the HTTP server

Readiness (/api/v1/health/ready) turns 200 once the artifacts are loaded.
If loading fails the server keeps running, reports 503 and the failure in
/api/v1/recommendations/status, and must be restarted after the artifacts
are fixed.

# Example Usage

	export ARTIFACT_PATH=/data/folio
	export CATALOG_PATH=/data/books_data.csv
	export ENCODER_PROVIDER=http
	export ENCODER_BASE_URL=http://ollama:11434/v1
	export ENCODER_MODEL=nomic-embed-text
	export ENCODER_DIMENSION=768
	./folio-server

# Signal Handling

SIGINT and SIGTERM stop the supervisor tree; the HTTP server drains in-flight
requests for up to SUPERVISOR_SHUTDOWN_TIMEOUT.
*/
package main
