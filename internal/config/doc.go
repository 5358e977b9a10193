// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package config provides centralized configuration for the folio CLI and the
recommendation server.

# Configuration Sources

Load layers three sources with Koanf v2, later ones winning:

  - Built-in defaults (defaultConfig)
  - An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/folio/config.yaml, /etc/folio/config.yml
  - Environment variables listed in the mapping table

Both binaries load a .env file with godotenv before calling Load, so .env
values behave exactly like exported variables.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8340), HTTP_TIMEOUT (default: 30s)
  - ENVIRONMENT: development, staging or production

Security:
  - CORS_ORIGINS: comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW (default: 100 per 1m)
  - DISABLE_RATE_LIMIT

Encoder:
  - ENCODER_PROVIDER: hashing (default) or http
  - ENCODER_MODEL, ENCODER_DIMENSION, ENCODER_NORMALIZE
  - ENCODER_BASE_URL, ENCODER_API_KEY: OpenAI-compatible endpoint, e.g.
    http://localhost:11434/v1 for Ollama
  - ENCODER_MAX_BATCH, ENCODER_TIMEOUT, ENCODER_REQUESTS_PER_SECOND,
    ENCODER_BURST, ENCODER_BREAKER_THRESHOLD, ENCODER_BREAKER_TIMEOUT

Artifacts and pipeline:
  - ARTIFACT_BACKEND: file (default) or badger
  - ARTIFACT_PATH (default: /data/folio)
  - BATCH_SIZE (default: 1000), EMBED_WORKERS (default: 1)
  - CORPUS_METADATA_PATH, CORPUS_REVIEWS_PATH, CORPUS_OUTPUT_PATH,
    CORPUS_SUBSET_SIZE, CORPUS_SEED, CORPUS_MAX_REVIEWS,
    DUCKDB_THREADS, DUCKDB_MAX_MEMORY

Serving:
  - CATALOG_PATH
  - RECOMMEND_DEFAULT_K (20), RECOMMEND_MAX_K (100),
    RECOMMEND_REQUEST_TIMEOUT (10s), RECOMMEND_CACHE_SIZE (1024),
    RECOMMEND_CACHE_TTL (0, no expiry), RECOMMEND_INIT_TIMEOUT (5m),
    RECOMMEND_WARMUP (true)
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
	svc, err := recommend.NewService(cfg.Recommend.Service(), loader, store, books, logger)

# Thread Safety

The Config struct is immutable after Load() returns.
*/
package config
