// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Config contains all configuration for the recommendation service.
type Config struct {
	// Limits contains per-request limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`

	// InitTimeout bounds the one-time load of encoder, artifacts and catalog.
	// Zero means no bound.
	// Default: 5m.
	InitTimeout time.Duration `json:"init_timeout"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the number of recommendations returned when a request
	// does not ask for a specific count.
	// Default: 20.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value. Larger requests are clamped.
	// Default: 100.
	MaxK int `json:"max_k"`

	// RequestTimeout bounds query encoding plus index search.
	// Default: 10s.
	RequestTimeout time.Duration `json:"request_timeout"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Size is the maximum number of cached responses. Zero disables caching.
	// Default: 1024.
	Size int `json:"size"`

	// TTL is the cache entry time-to-live. Zero keeps entries until evicted.
	// Default: 0.
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultK:       20,
			MaxK:           100,
			RequestTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Size: 1024,
		},
		InitTimeout: 5 * time.Minute,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.RequestTimeout < 0 {
		return fmt.Errorf("limits.request_timeout must not be negative, got %v", c.Limits.RequestTimeout)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL)
	}
	if c.InitTimeout < 0 {
		return fmt.Errorf("init_timeout must not be negative, got %v", c.InitTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// MarshalJSON renders durations as strings for the status endpoint.
func (c *Config) MarshalJSON() ([]byte, error) {
	type limits struct {
		DefaultK       int    `json:"default_k"`
		MaxK           int    `json:"max_k"`
		RequestTimeout string `json:"request_timeout"`
	}
	type cacheCfg struct {
		Size int    `json:"size"`
		TTL  string `json:"ttl"`
	}
	return json.Marshal(struct {
		Limits      limits   `json:"limits"`
		Cache       cacheCfg `json:"cache"`
		InitTimeout string   `json:"init_timeout"`
	}{
		Limits: limits{
			DefaultK:       c.Limits.DefaultK,
			MaxK:           c.Limits.MaxK,
			RequestTimeout: c.Limits.RequestTimeout.String(),
		},
		Cache: cacheCfg{
			Size: c.Cache.Size,
			TTL:  c.Cache.TTL.String(),
		},
		InitTimeout: c.InitTimeout.String(),
	})
}
