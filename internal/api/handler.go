// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

// Recommender is the part of *recommend.Service the handlers use.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	SimilarTo(ctx context.Context, title string, k int) (*recommend.Response, error)
	Status() recommend.Status
	Ready() bool
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	recommender Recommender
	books       *catalog.Catalog
	startTime   time.Time
	version     string
}

// NewHandler creates a handler. books is the same catalog the recommender
// joins against; it must not be nil.
func NewHandler(recommender Recommender, books *catalog.Catalog, version string) *Handler {
	return &Handler{
		recommender: recommender,
		books:       books,
		startTime:   time.Now(),
		version:     version,
	}
}

func recommendLogger(r *http.Request) *zerolog.Logger {
	l := logging.Ctx(r.Context()).With().Str("component", "api").Str("path", r.URL.Path).Logger()
	return &l
}
