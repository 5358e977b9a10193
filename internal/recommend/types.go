// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"time"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/catalog"
)

// Request represents a recommendation request.
type Request struct {
	// Preferences are free-text terms describing what the reader likes.
	Preferences []string `json:"preferences"`

	// K is the number of recommendations to return.
	// Defaults to Config.Limits.DefaultK if zero.
	K int `json:"k,omitempty"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// RankedBook is a recommended book with its distance to the query.
type RankedBook struct {
	// Book is the catalog metadata.
	Book catalog.Book `json:"book"`

	// Distance is the squared Euclidean distance to the query embedding.
	// Smaller is more similar.
	Distance float32 `json:"distance"`

	// Rank is the 1-based position in the returned list.
	Rank int `json:"rank"`
}

// Response is the result of a recommendation request.
type Response struct {
	// Books are ordered by ascending distance.
	Books []RankedBook `json:"books"`

	// Metadata describes how the response was produced.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains request-level details.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`

	// Query is the filtered preference text that was embedded.
	Query string `json:"query"`

	// Requested is K after defaulting and clamping.
	Requested int `json:"requested"`

	// Candidates is the number of index hits before the metadata join.
	Candidates int `json:"candidates"`

	// Returned is len(Books).
	Returned int `json:"returned"`

	// Dropped counts hits whose titles had no catalog metadata.
	Dropped int `json:"dropped"`

	LatencyMS   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Model       string    `json:"model"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// clone copies the response so cached values are never shared with callers.
func (r *Response) clone() *Response {
	books := make([]RankedBook, len(r.Books))
	copy(books, r.Books)
	return &Response{Books: books, Metadata: r.Metadata}
}

// State is the lifecycle state of the service.
type State string

const (
	// StateUninitialized means no call has needed the artifacts yet.
	StateUninitialized State = "uninitialized"
	// StateInitializing means the one-time load is running.
	StateInitializing State = "initializing"
	// StateReady means queries are being served.
	StateReady State = "ready"
	// StateFailed means the load failed. The failure is permanent for the
	// life of the process.
	StateFailed State = "failed"
)

// Status reports the service state for health and status endpoints.
type Status struct {
	State State  `json:"state"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`

	// Artifact details, set once ready.
	Model       string `json:"model,omitempty"`
	Dimension   int    `json:"dimension,omitempty"`
	Vectors     int    `json:"vectors,omitempty"`
	Books       int    `json:"books,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	InitDurationMS int64     `json:"init_duration_ms,omitempty"`
	InitializedAt  time.Time `json:"initialized_at,omitempty"`

	RequestCount int64 `json:"request_count"`
	ErrorCount   int64 `json:"error_count"`

	// Cache is nil when caching is disabled.
	Cache *cache.Stats `json:"cache,omitempty"`

	Config *Config `json:"config"`
}
