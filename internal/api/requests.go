// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/folio/internal/validation"
)

const (
	defaultPageSize   = 50
	maxPageSize       = 500
	defaultTopK       = 10
	defaultMinRatings = 0
)

// RecommendRequest is the body of POST /api/v1/recommendations.
// Only the count and length of preference terms are checked here; the service
// drops short and blank terms. K is validated loosely and clamped by the service.
type RecommendRequest struct {
	Preferences []string `json:"preferences" validate:"required,min=1,max=50,dive,max=200"`
	K           int      `json:"k,omitempty" validate:"gte=0,lte=1000"`
}

// SimilarRequest holds the query of GET /api/v1/recommendations/similar.
type SimilarRequest struct {
	Title string `query:"title" validate:"required,notblank,max=500"`
	K     int    `query:"k" validate:"gte=0,lte=1000"`
}

// BooksRequest holds the query of GET /api/v1/books.
type BooksRequest struct {
	Query  string `query:"q" validate:"max=200"`
	Limit  int    `query:"limit" validate:"min=1,max=500"`
	Offset int    `query:"offset" validate:"min=0"`
}

// TopRatedRequest holds the query of GET /api/v1/books/top.
type TopRatedRequest struct {
	K          int `query:"k" validate:"min=1,max=500"`
	MinRatings int `query:"min_ratings" validate:"min=0"`
}

// paramError reports a query parameter that is not an integer.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s must be an integer, got %q", e.name, e.value)
}

// getIntParam returns the named query parameter, or def when it is absent.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// validateRequest validates req and writes a 400 on failure. It reports
// whether the handler may continue.
func validateRequest(rw *ResponseWriter, req interface{}) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	return false
}
