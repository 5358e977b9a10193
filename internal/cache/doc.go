// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package cache provides a thread-safe, generic LRU cache with optional TTL.

The recommendation service uses it to memoize responses keyed by the
normalized query text and result count. The index and metadata behind those
responses do not change while the process runs, so that cache is usually
created without a TTL.

# Usage

	c := cache.NewLRU[*Response](1024, 0)
	c.Add("fantasy dragons|20", resp)
	if resp, ok := c.Get("fantasy dragons|20"); ok {
	    // use resp
	}

Expired entries are removed lazily on Get, or in bulk with CleanupExpired.
*/
package cache
