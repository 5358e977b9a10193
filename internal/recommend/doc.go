// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package recommend serves book recommendations from the artifacts produced by
// the pipeline package.
//
// # Query Flow
//
//	preferences -> BuildQuery -> encode -> exact k-NN search
//	            -> index positions -> titles -> catalog metadata
//
// Preference terms are trimmed and terms shorter than three characters are
// dropped before the survivors are joined into one query text. Index hits
// whose titles have no catalog entry are skipped with a warning, so a request
// for K books may return fewer.
//
// # Lifecycle
//
// A Service loads the encoder, embedding store, index and catalog exactly once,
// on the first query or an explicit Warm. The index must carry the embedding
// store's fingerprint and the encoder must produce vectors of the stored
// dimension; otherwise initialization fails with ErrInitialization. That
// failure is permanent for the process: every later call returns it, and the
// fix is to rebuild the artifacts and restart.
//
// # Usage
//
//	svc, err := recommend.NewService(cfg, loader, store, catalog.FileSource{Path: p}, logger)
//	if err != nil {
//	    return err
//	}
//	resp, err := svc.Recommend(ctx, recommend.Request{
//	    Preferences: []string{"fantasy", "dragons"},
//	    K:           10,
//	})
//
// # Thread Safety
//
// The service is safe for concurrent use. Loaded state is an immutable
// snapshot read without locks; only the one-time load is serialized.
package recommend
