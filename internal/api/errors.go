// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/folio/internal/recommend"
)

// errorMapping is the HTTP rendering of a recommendation error.
type errorMapping struct {
	status  int
	code    string
	message string
}

// mapRecommendError classifies err. Messages for server-side failures are
// generic; the cause is logged, not returned.
func mapRecommendError(err error) errorMapping {
	switch {
	case errors.Is(err, recommend.ErrEmptyPreferences):
		return errorMapping{http.StatusBadRequest, ErrCodeBadRequest,
			"No usable preferences: every term was shorter than 3 characters"}
	case errors.Is(err, recommend.ErrUnknownTitle):
		return errorMapping{http.StatusNotFound, ErrCodeNotFound,
			"Title is not in the recommendation index"}
	case errors.Is(err, recommend.ErrInitialization):
		return errorMapping{http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Recommendation service is unavailable"}
	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, ErrCodeGatewayTimeout,
			"Recommendation timed out"}
	default:
		return errorMapping{http.StatusInternalServerError, ErrCodeInternalError,
			"Recommendation failed"}
	}
}

// writeRecommendError logs err at a level matching its class and writes the
// mapped envelope.
func writeRecommendError(rw *ResponseWriter, r *http.Request, err error) {
	m := mapRecommendError(err)

	logger := recommendLogger(r)
	if m.status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", m.status).Msg("Recommendation request failed")
	} else {
		logger.Debug().Err(err).Int("status", m.status).Msg("Recommendation request rejected")
	}

	rw.Error(m.status, m.code, m.message)
}
