// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/supervisor"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.Logger())

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocritic // hugeParam: cfg is loaded once
func run(cfg *config.Config) error {
	logger := logging.WithComponent("server")
	logger.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("artifacts", cfg.Artifacts.Path).
		Str("backend", cfg.Artifacts.Backend).
		Str("encoder", cfg.Encoder.Provider).
		Str("model", cfg.Encoder.Model).
		Msg("Starting Folio")

	store, err := artifact.Open(cfg.Artifacts.Backend, cfg.Artifacts.Path)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing artifact store")
		}
	}()

	books, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	metrics.SetCatalogStats(books.Len(), books.Duplicates())
	logger.Info().
		Int("books", books.Len()).
		Int("duplicates", books.Duplicates()).
		Int("skipped", books.Skipped()).
		Msg("Catalog loaded")

	svc, err := recommend.NewService(
		cfg.Recommend.Service(),
		embedding.NewLoader(cfg.Encoder.Embedding()),
		store,
		catalog.Static(books),
		logger,
	)
	if err != nil {
		return fmt.Errorf("create recommendation service: %w", err)
	}

	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security))
	router := api.NewRouter(api.NewHandler(svc, books, version), mw)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg.Supervisor.Tree())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	if cfg.Recommend.Warmup {
		tree.AddServingService(services.NewWarmupService(svc, logger))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logger.Info().Str("addr", server.Addr).Bool("warmup", cfg.Recommend.Warmup).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}

	if ctx.Err() != nil && treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logger.Error().Err(treeErr).Msg("Supervisor shutdown error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, u := range unstopped {
			logger.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
		}
	}

	if ctx.Err() == nil {
		if treeErr != nil {
			return fmt.Errorf("supervisor tree: %w", treeErr)
		}
		return errors.New("supervisor tree stopped without a shutdown signal")
	}
	return nil
}
