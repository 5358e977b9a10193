// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package logging provides the zerolog-based structured logger shared by the
server and the folio CLI.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})

	logging.Info().Int("books", n).Msg("catalog loaded")
	logging.Err(err).Str("stage", "merge").Msg("pipeline stage failed")

Long-lived components keep a child logger rather than calling the globals:

	log := logging.WithComponent("batcher")
	log.Debug().Int("offset", off).Msg("chunk exists, skipping")

# Context

API middleware stores the request ID in the request context; pipeline runs
store a correlation ID. Ctx adds both fields when present:

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Info().Msg("embedding run started")

# slog Bridge

SlogHandler lets slog-only libraries (the suture supervisor event hook) write
through the same zerolog output.

# Usage Notes

Always terminate an entry with Msg or Send; an unterminated event is dropped.
Prefer typed fields over Msgf.
*/
package logging
