// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/folio/internal/recommend"
)

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string          `json:"status"`
	Version       string          `json:"version,omitempty"`
	State         recommend.State `json:"state,omitempty"`
	CatalogBooks  int             `json:"catalog_books"`
	UptimeSeconds float64         `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health/live. It only proves the process is
// serving requests.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status:        "alive",
		Version:       h.version,
		CatalogBooks:  h.books.Len(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// Readiness handles GET /api/v1/health/ready: 200 once the artifacts are
// loaded, 503 with the current state otherwise.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	st := h.recommender.Status()

	health := HealthStatus{
		Status:        "ready",
		Version:       h.version,
		State:         st.State,
		CatalogBooks:  h.books.Len(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.recommender.Ready() {
		rw.Success(health)
		return
	}

	health.Status = "not_ready"
	rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
		"Recommendation artifacts are not loaded", health)
}
