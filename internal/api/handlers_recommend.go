// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

// maxRecommendBody bounds the request body of POST /recommendations.
const maxRecommendBody = 64 << 10

// Recommend handles POST /api/v1/recommendations.
//
//	curl -X POST localhost:8340/api/v1/recommendations \
//	    -d '{"preferences": ["space opera", "political intrigue"], "k": 5}'
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRecommendBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("Invalid request body: " + err.Error())
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	resp, err := h.recommender.Recommend(r.Context(), recommend.Request{
		Preferences: req.Preferences,
		K:           req.K,
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		writeRecommendError(rw, r, err)
		return
	}

	rw.Success(resp)
}

// SimilarTo handles GET /api/v1/recommendations/similar.
func (h *Handler) SimilarTo(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	k, err := getIntParam(r, "k", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req := SimilarRequest{
		Title: strings.TrimSpace(r.URL.Query().Get("title")),
		K:     k,
	}
	if !validateRequest(rw, &req) {
		return
	}

	resp, err := h.recommender.SimilarTo(r.Context(), req.Title, req.K)
	if err != nil {
		writeRecommendError(rw, r, err)
		return
	}

	rw.Success(resp)
}

// RecommendStatus handles GET /api/v1/recommendations/status. It always
// answers 200; the state field says whether queries can be served.
func (h *Handler) RecommendStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.recommender.Status())
}
