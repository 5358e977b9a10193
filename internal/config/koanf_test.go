// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// isolateEnv unsets every mapped variable and CONFIG_PATH for the duration of
// the test and moves into an empty directory so no config file is found.
func isolateEnv(t *testing.T) string {
	t.Helper()
	keys := []string{ConfigPathEnvVar}
	for k := range envMappings {
		keys = append(keys, strings.ToUpper(k))
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v)
			os.Unsetenv(k)
		}
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8340 {
		t.Errorf("Server.Port = %d, want 8340", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Encoder.Provider != "hashing" {
		t.Errorf("Encoder.Provider = %q, want hashing", cfg.Encoder.Provider)
	}
	if cfg.Artifacts.Backend != "file" {
		t.Errorf("Artifacts.Backend = %q, want file", cfg.Artifacts.Backend)
	}
	if cfg.Pipeline.BatchSize != 1000 {
		t.Errorf("Pipeline.BatchSize = %d, want 1000", cfg.Pipeline.BatchSize)
	}
	if cfg.Corpus.SubsetSize != 50000 {
		t.Errorf("Corpus.SubsetSize = %d, want 50000", cfg.Corpus.SubsetSize)
	}
	if cfg.Corpus.MaxReviews != 5 {
		t.Errorf("Corpus.MaxReviews = %d, want 5", cfg.Corpus.MaxReviews)
	}
	if cfg.Recommend.DefaultK != 20 {
		t.Errorf("Recommend.DefaultK = %d, want 20", cfg.Recommend.DefaultK)
	}
	if cfg.Recommend.CacheTTL != 0 {
		t.Errorf("Recommend.CacheTTL = %v, want 0", cfg.Recommend.CacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"ENVIRONMENT", "server.environment"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"ENCODER_BASE_URL", "encoder.base_url"},
		{"ENCODER_BREAKER_THRESHOLD", "encoder.breaker_threshold"},
		{"ARTIFACT_BACKEND", "artifacts.backend"},
		{"BATCH_SIZE", "pipeline.batch_size"},
		{"EMBED_WORKERS", "pipeline.workers"},
		{"DUCKDB_MAX_MEMORY", "corpus.max_memory"},
		{"CATALOG_PATH", "catalog.path"},
		{"RECOMMEND_MAX_K", "recommend.max_k"},
		{"SUPERVISOR_SHUTDOWN_TIMEOUT", "supervisor.shutdown_timeout"},

		// Unmapped variables are skipped
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEnvMappingsTargetRealKeys(t *testing.T) {
	paths := map[string]bool{}
	for _, section := range []string{"server", "security", "logging", "encoder", "artifacts",
		"pipeline", "corpus", "catalog", "recommend", "supervisor"} {
		paths[section] = true
	}
	for env, path := range envMappings {
		section, _, ok := strings.Cut(path, ".")
		if !ok || !paths[section] {
			t.Errorf("env %s maps to %q outside a known section", env, path)
		}
		if env != strings.ToLower(env) {
			t.Errorf("env mapping key %q must be lowercase", env)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := isolateEnv(t)

	t.Run("no config file exists", func(t *testing.T) {
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("server: {}"), 0o644); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		customPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server: {}"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if got := FilePath(); got != customPath {
			t.Errorf("FilePath() = %q, want %q", got, customPath)
		}
	})

	t.Run("CONFIG_PATH with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")

		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateEnv(t)

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BATCH_SIZE", "250")
	t.Setenv("ENCODER_PROVIDER", "http")
	t.Setenv("ENCODER_BASE_URL", "http://ollama:11434/v1")
	t.Setenv("ENCODER_MODEL", "nomic-embed-text")
	t.Setenv("ENCODER_DIMENSION", "0")
	t.Setenv("RECOMMEND_REQUEST_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Pipeline.BatchSize != 250 {
		t.Errorf("Pipeline.BatchSize = %d, want 250", cfg.Pipeline.BatchSize)
	}
	if cfg.Encoder.Provider != "http" || cfg.Encoder.Dimension != 0 {
		t.Errorf("Encoder = %+v, want http provider with probed dimension", cfg.Encoder)
	}
	if cfg.Recommend.RequestTimeout != 3*time.Second {
		t.Errorf("Recommend.RequestTimeout = %v, want 3s", cfg.Recommend.RequestTimeout)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !slices.Equal(cfg.Security.CORSOrigins, want) {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}

	// Defaults survive for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Recommend.MaxK != 100 {
		t.Errorf("Recommend.MaxK = %d, want 100 (default)", cfg.Recommend.MaxK)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	isolateEnv(t)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

artifacts:
  backend: badger
  path: /var/lib/folio

recommend:
  default_k: 10
  cache_ttl: 15m

security:
  cors_origins:
    - https://books.example.com

logging:
  level: warn
`
	configPath := filepath.Join(t.TempDir(), "folio.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %+v, want 127.0.0.1:8888", cfg.Server)
	}
	if cfg.Artifacts.Backend != "badger" || cfg.Artifacts.Path != "/var/lib/folio" {
		t.Errorf("Artifacts = %+v", cfg.Artifacts)
	}
	if cfg.Recommend.DefaultK != 10 {
		t.Errorf("Recommend.DefaultK = %d, want 10", cfg.Recommend.DefaultK)
	}
	if cfg.Recommend.CacheTTL != 15*time.Minute {
		t.Errorf("Recommend.CacheTTL = %v, want 15m", cfg.Recommend.CacheTTL)
	}
	if !slices.Equal(cfg.Security.CORSOrigins, []string{"https://books.example.com"}) {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Pipeline.BatchSize != 1000 {
		t.Errorf("Pipeline.BatchSize = %d, want 1000 (default)", cfg.Pipeline.BatchSize)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 8888\nlogging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "7777")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env overrides file)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (from file)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid port", map[string]string{"HTTP_PORT": "70000"}},
		{"invalid log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"unknown provider", map[string]string{"ENCODER_PROVIDER": "onnx"}},
		{"http provider without url", map[string]string{"ENCODER_PROVIDER": "http"}},
		{"unknown backend", map[string]string{"ARTIFACT_BACKEND": "s3"}},
		{"zero batch size", map[string]string{"BATCH_SIZE": "0"}},
		{"max k below default k", map[string]string{"RECOMMEND_MAX_K": "5"}},
		{"origin with path", map[string]string{"CORS_ORIGINS": "https://a.example.com/app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadWithKoanf(); err == nil {
				t.Error("LoadWithKoanf() = nil error, want validation failure")
			}
		})
	}
}
