// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package services adapts server components to suture's Serve(ctx) error model.

  - HTTPServerService: ListenAndServe in a goroutine, graceful Shutdown with
    its own timeout when the supervisor stops it.
  - WarmupService: one recommend.Service warm-up at start, then response cache
    pruning on the cache TTL. An initialization failure returns
    suture.ErrDoNotRestart.

Every service implements fmt.Stringer so supervisor events name it.
*/
package services
