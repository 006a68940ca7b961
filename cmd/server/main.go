// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package main is the entry point for the Parcelario server.
//
// Parcelario is a self-hosted backend for forest parcel mapping: it
// persists user-drawn parcels with their field inventories, keeps a
// shared catalog of WMS basemap endpoints, and proxies GBIF species
// occurrence lookups for distribution modeling on the client.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings via Koanf v2 (defaults, YAML file,
//     environment variables)
//  2. Store: embedded BadgerDB holding users, parcels, and WMS layers
//  3. Authentication: JWT manager and bearer-token gate
//  4. GBIF client: circuit-breaker-wrapped occurrence proxy
//  5. HTTP server: Chi router with per-endpoint rate limits
//  6. Supervisor tree: suture-managed HTTP server and store GC loop
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults.
//
// The JWT signing secret has no default. Startup fails unless
// JWT_SECRET (or security.jwt_secret) holds at least 32 characters:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export BADGER_PATH=/data/parcelario
//	./parcelario
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests (10s timeout), and
// closes the store.
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

	"github.com/agroforestal/parcelario/internal/api"
	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/config"
	"github.com/agroforestal/parcelario/internal/database"
	"github.com/agroforestal/parcelario/internal/gbif"
	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/supervisor"
	"github.com/agroforestal/parcelario/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("gbif_base_url", cfg.GBIF.BaseURL).
		Msg("Starting Parcelario")

	if cfg.Security.RateLimitDisabled && !cfg.IsDevelopment() {
		logging.Warn().Msg("Rate limiting is disabled outside development")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Msg("Store opened")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	gbifClient := gbif.NewClient(&cfg.GBIF)

	handler := api.NewHandler(db, jwtManager, gbifClient, cfg, version)
	chiMw := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), chiMw)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewStoreGCService(db, cfg.Database.GCInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
