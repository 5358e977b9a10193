// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package validation validates API request structs with go-playground/validator v10.
//
// A single validator is shared process-wide. Errors name fields the way the
// client spelled them (json or query tag) and are converted to the API's
// VALIDATION_ERROR payload by ToAPIError.
//
//	type SimilarRequest struct {
//	    Title string `query:"title" validate:"required,notblank,max=500"`
//	    K     int    `query:"k" validate:"gte=0,lte=1000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // 400 with apiErr.Code, apiErr.Message, apiErr.Details
//	}
//
// Besides the built-in tags, "notblank" rejects strings that are empty after
// trimming whitespace.
package validation
