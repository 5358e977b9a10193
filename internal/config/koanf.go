// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/folio/config.yaml",
	"/etc/folio/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8340,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Encoder: EncoderConfig{
			Provider:          "hashing",
			Model:             "hashing-384",
			BaseURL:           "",
			APIKey:            "",
			Dimension:         384,
			MaxBatch:          64,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 0,
			Burst:             1,
			BreakerThreshold:  5,
			BreakerTimeout:    30 * time.Second,
			Normalize:         true,
		},
		Artifacts: ArtifactsConfig{
			Backend: "file",
			Path:    "/data/folio",
		},
		Pipeline: PipelineConfig{
			BatchSize: 1000,
			Workers:   1,
		},
		Corpus: CorpusConfig{
			MetadataPath: "books_data.csv",
			ReviewsPath:  "Books_rating.csv",
			OutputPath:   "/data/folio/books_subset.csv",
			SubsetSize:   50000,
			Seed:         42,
			MaxReviews:   5,
		},
		Catalog: CatalogConfig{
			Path: "books_data.csv",
		},
		Recommend: RecommendConfig{
			DefaultK:       20,
			MaxK:           100,
			RequestTimeout: 10 * time.Second,
			CacheSize:      1024,
			CacheTTL:       0,
			InitTimeout:    5 * time.Minute,
			Warmup:         true,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
//
// Loading order (later sources override earlier ones):
//  1. Built-in defaults from defaultConfig()
//  2. Config file (if found): config.yaml, config.yml, or CONFIG_PATH
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// ENCODER_BASE_URL -> encoder.base_url
	// RECOMMEND_MAX_K -> recommend.max_k
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the following order:
//  1. Path specified by CONFIG_PATH environment variable
//  2. Default paths (config.yaml, config.yml, /etc/folio/...)
//
// Returns empty string if no config file is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths that hold comma-separated lists when
// they come from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices.
// Environment variables arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Encoder
	"encoder_provider":            "encoder.provider",
	"encoder_model":               "encoder.model",
	"encoder_base_url":            "encoder.base_url",
	"encoder_api_key":             "encoder.api_key",
	"encoder_dimension":           "encoder.dimension",
	"encoder_max_batch":           "encoder.max_batch",
	"encoder_timeout":             "encoder.timeout",
	"encoder_requests_per_second": "encoder.requests_per_second",
	"encoder_burst":               "encoder.burst",
	"encoder_breaker_threshold":   "encoder.breaker_threshold",
	"encoder_breaker_timeout":     "encoder.breaker_timeout",
	"encoder_normalize":           "encoder.normalize",

	// Artifacts
	"artifact_backend": "artifacts.backend",
	"artifact_path":    "artifacts.path",

	// Pipeline
	"batch_size":    "pipeline.batch_size",
	"embed_workers": "pipeline.workers",

	// Corpus
	"corpus_metadata_path": "corpus.metadata_path",
	"corpus_reviews_path":  "corpus.reviews_path",
	"corpus_output_path":   "corpus.output_path",
	"corpus_subset_size":   "corpus.subset_size",
	"corpus_seed":          "corpus.seed",
	"corpus_max_reviews":   "corpus.max_reviews",
	"duckdb_threads":       "corpus.threads",
	"duckdb_max_memory":    "corpus.max_memory",

	// Catalog
	"catalog_path": "catalog.path",

	// Recommend
	"recommend_default_k":       "recommend.default_k",
	"recommend_max_k":           "recommend.max_k",
	"recommend_request_timeout": "recommend.request_timeout",
	"recommend_cache_size":      "recommend.cache_size",
	"recommend_cache_ttl":       "recommend.cache_ttl",
	"recommend_init_timeout":    "recommend.init_timeout",
	"recommend_warmup":          "recommend.warmup",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" so koanf skips them.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// FilePath returns the config file LoadWithKoanf would read, or "" if none exists.
func FilePath() string {
	return findConfigFile()
}
