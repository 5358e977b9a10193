// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateEncoder(); err != nil {
		return err
	}

	if err := c.validateArtifacts(); err != nil {
		return err
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	return c.validateRecommend()
}

// validEnvironments defines the allowed ENVIRONMENT values
var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// validateSecurity validates CORS and rate limiting configuration
func (c *Config) validateSecurity() error {
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS validates every configured origin. "*" allows any origin.
func (c *Config) validateCORS() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := validateOrigin(origin); err != nil {
			return fmt.Errorf("CORS_ORIGINS entry %q is invalid: %w", origin, err)
		}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d, got %d",
			minRateLimitRequests, maxRateLimitRequests, c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v, got %v",
			minRateLimitWindow, maxRateLimitWindow, c.Security.RateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateEncoder validates the encoder section
func (c *Config) validateEncoder() error {
	e := c.Encoder
	if e.Model == "" {
		return fmt.Errorf("ENCODER_MODEL is required")
	}
	if e.Dimension < 0 {
		return fmt.Errorf("ENCODER_DIMENSION must not be negative")
	}
	if e.MaxBatch < 1 {
		return fmt.Errorf("ENCODER_MAX_BATCH must be at least 1")
	}
	if e.RequestsPerSecond < 0 {
		return fmt.Errorf("ENCODER_REQUESTS_PER_SECOND must not be negative")
	}

	switch e.Provider {
	case "hashing":
		if e.Dimension == 0 {
			return fmt.Errorf("ENCODER_DIMENSION is required for the hashing provider")
		}
	case "http":
		if e.BaseURL == "" {
			return fmt.Errorf("ENCODER_BASE_URL is required when ENCODER_PROVIDER=http")
		}
		if err := validateBaseURL(e.BaseURL); err != nil {
			return fmt.Errorf("ENCODER_BASE_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("ENCODER_PROVIDER must be one of: hashing, http")
	}
	return nil
}

// validateArtifacts validates the artifact store section
func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case "file", "badger":
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of: file, badger")
	}
	if c.Artifacts.Path == "" {
		return fmt.Errorf("ARTIFACT_PATH is required")
	}
	return nil
}

// validatePipeline validates batcher settings
func (c *Config) validatePipeline() error {
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("EMBED_WORKERS must be at least 1")
	}
	if c.Corpus.SubsetSize < 0 {
		return fmt.Errorf("CORPUS_SUBSET_SIZE must not be negative")
	}
	return nil
}

// validateRecommend applies the query service's own rules to the section.
func (c *Config) validateRecommend() error {
	if err := c.Recommend.Service().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

// validateBaseURL accepts an http(s) URL with an optional path such as /v1.
func validateBaseURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	if u.RawQuery != "" {
		return fmt.Errorf("should not contain query parameters, remove: ?%s", u.RawQuery)
	}
	return nil
}

// validateOrigin accepts scheme://host[:port] with no path.
func validateOrigin(origin string) error {
	if err := validateBaseURL(origin); err != nil {
		return err
	}
	u, _ := url.Parse(origin)
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("origin must not contain a path: %s", u.Path)
	}
	return nil
}
