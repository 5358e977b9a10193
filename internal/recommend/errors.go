// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import "errors"

var (
	// ErrInitialization wraps the cause of a failed one-time load. Once
	// returned it is returned by every later call.
	ErrInitialization = errors.New("recommendation service failed to initialize")

	// ErrEmptyPreferences means no preference term survived filtering.
	ErrEmptyPreferences = errors.New("no usable preferences")

	// ErrUnknownTitle means a similarity lookup named a title that is not indexed.
	ErrUnknownTitle = errors.New("title not in index")

	// ErrQueryFailed wraps a per-request failure in encoding or search,
	// including timeouts. The service stays usable.
	ErrQueryFailed = errors.New("recommendation query failed")
)

// IsClientError reports whether err was caused by the request itself rather
// than by the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyPreferences) || errors.Is(err, ErrUnknownTitle)
}
