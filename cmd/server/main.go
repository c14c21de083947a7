// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/marquee-app/marquee/docs" // registers the OpenAPI document
	"github.com/marquee-app/marquee/internal/api"
	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/database"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/supervisor"
	"github.com/marquee-app/marquee/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Marquee stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until the supervisor tree exits.
// Deferred closes run in reverse order of construction.
//
//nolint:gocyclo // sequential setup steps
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("cache_backend", cfg.Cache.Backend).
		Str("events_backend", cfg.Events.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Marquee")
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Strs("origins", cfg.Security.CORSOrigins).Msg("Wildcard CORS origin with authentication enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	store, err := cache.New(ctx, cacheConfig(&cfg.Cache))
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	syncer := initCatalogSync(cfg, db, store, logging.WithComponent("tmdb"))

	rc, err := initRecommend(cfg, db, store, syncer, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}

	bus, listener, err := initEvents(&cfg.Events, store, logging.WithComponent("events"))
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	handler, err := api.NewHandler(api.HandlerDeps{
		Store:       db,
		Recommender: rc.Engine,
		Generator:   rc.Generator,
		Publisher:   bus,
		Cache:       store,
	}, logger)
	if err != nil {
		return fmt.Errorf("create API handler: %w", err)
	}
	authMW, err := api.NewAuthMiddleware(&cfg.Security)
	if err != nil {
		return fmt.Errorf("configure authentication: %w", err)
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)), authMW)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	treeCfg := supervisor.DefaultTreeConfig()
	if cfg.Server.ShutdownTimeout > 0 {
		treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	jobs := buildJobs(&cfg.Jobs, &cfg.TMDb, rc, syncer, logging.WithComponent("jobs"))
	n, err := registerJobs(tree, &cfg.Jobs, jobs, logging.WithComponent("jobs"))
	if err != nil {
		return err
	}
	logging.Info().Int("jobs", n).Bool("run_on_start", cfg.Jobs.RunOnStart).Msg("Scheduled jobs added")

	tree.AddMessagingService(listener)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value when the root supervisor stops.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", serveErr)
	}
	return nil
}
