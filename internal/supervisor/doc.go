// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package supervisor runs the recommendation server's long-lived services under
a suture v4 supervisor tree.

	folio
	├── serving-layer
	│   └── WarmupService (loads artifacts, then prunes the response cache)
	└── api-layer
	    └── HTTPServerService

Crashed services restart with suture's backoff; a layer's failures are counted
independently of the other layer. Supervisor events are logged through
sutureslog into the zerolog-backed slog handler from the logging package.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg.Supervisor.Tree())
	if err != nil {
	    return err
	}
	tree.AddServingService(services.NewWarmupService(svc, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Service implementations live in the services subpackage.
*/
package supervisor
