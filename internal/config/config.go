// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"time"

	"github.com/tomtom215/folio/internal/corpus"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/pipeline"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/supervisor"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// The same Config drives both binaries. The folio CLI reads the corpus,
// encoder, artifacts and pipeline sections; the server reads encoder,
// artifacts, catalog, recommend, server, security and supervisor.
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Encoder    EncoderConfig    `koanf:"encoder"`
	Artifacts  ArtifactsConfig  `koanf:"artifacts"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Corpus     CorpusConfig     `koanf:"corpus"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging" or "production"
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// EncoderConfig selects and tunes the sentence encoder.
type EncoderConfig struct {
	Provider          string        `koanf:"provider"` // "hashing" or "http"
	Model             string        `koanf:"model"`
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Dimension         int           `koanf:"dimension"`
	MaxBatch          int           `koanf:"max_batch"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerThreshold  uint32        `koanf:"breaker_threshold"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
	Normalize         bool          `koanf:"normalize"`
}

// ArtifactsConfig selects where chunks, embeddings and the index live.
type ArtifactsConfig struct {
	Backend string `koanf:"backend"` // "file" or "badger"
	Path    string `koanf:"path"`
}

// PipelineConfig tunes the embedding batcher.
type PipelineConfig struct {
	BatchSize int `koanf:"batch_size"`
	Workers   int `koanf:"workers"`
}

// CorpusConfig locates the raw book and review CSVs.
type CorpusConfig struct {
	MetadataPath string `koanf:"metadata_path"`
	ReviewsPath  string `koanf:"reviews_path"`
	OutputPath   string `koanf:"output_path"`
	SubsetSize   int    `koanf:"subset_size"`
	Seed         int64  `koanf:"seed"`
	MaxReviews   int    `koanf:"max_reviews"`
	Threads      int    `koanf:"threads"`
	MaxMemory    string `koanf:"max_memory"`
}

// CatalogConfig locates the book metadata served with recommendations.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// RecommendConfig holds query service limits and caching.
type RecommendConfig struct {
	DefaultK       int           `koanf:"default_k"`
	MaxK           int           `koanf:"max_k"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CacheSize      int           `koanf:"cache_size"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	InitTimeout    time.Duration `koanf:"init_timeout"`
	Warmup         bool          `koanf:"warmup"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Embedding converts the section into an embedding.Config.
func (e EncoderConfig) Embedding() embedding.Config {
	return embedding.Config{
		Provider:          e.Provider,
		Model:             e.Model,
		BaseURL:           e.BaseURL,
		APIKey:            e.APIKey,
		Dimension:         e.Dimension,
		MaxBatch:          e.MaxBatch,
		Timeout:           e.Timeout,
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
		BreakerThreshold:  e.BreakerThreshold,
		BreakerTimeout:    e.BreakerTimeout,
		Normalize:         e.Normalize,
	}
}

// Builder converts the section into a corpus.Config.
func (c CorpusConfig) Builder() corpus.Config {
	return corpus.Config{
		MetadataPath: c.MetadataPath,
		ReviewsPath:  c.ReviewsPath,
		SubsetSize:   c.SubsetSize,
		Seed:         c.Seed,
		MaxReviews:   c.MaxReviews,
		Threads:      c.Threads,
		MaxMemory:    c.MaxMemory,
	}
}

// Batcher converts the section into a pipeline.BatcherConfig.
func (p PipelineConfig) Batcher() pipeline.BatcherConfig {
	return pipeline.BatcherConfig{BatchSize: p.BatchSize, Workers: p.Workers}
}

// Service converts the section into a recommend.Config.
func (r RecommendConfig) Service() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Limits.DefaultK = r.DefaultK
	cfg.Limits.MaxK = r.MaxK
	cfg.Limits.RequestTimeout = r.RequestTimeout
	cfg.Cache.Size = r.CacheSize
	cfg.Cache.TTL = r.CacheTTL
	cfg.InitTimeout = r.InitTimeout
	return cfg
}

// Logger converts the section into a logging.Config.
func (l LoggingConfig) Logger() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	if l.Format != "" {
		cfg.Format = l.Format
	}
	cfg.Caller = l.Caller
	return cfg
}

// Tree converts the section into a supervisor.TreeConfig.
func (s SupervisorConfig) Tree() supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: s.FailureThreshold,
		FailureDecay:     s.FailureDecay,
		FailureBackoff:   s.FailureBackoff,
		ShutdownTimeout:  s.ShutdownTimeout,
	}
}

// Load reads configuration using Koanf with layered sources:
// defaults, then an optional config file, then environment variables.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
