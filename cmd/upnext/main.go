package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TenKdoToLami/UpNext/internal/api"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/credentials"
	"github.com/TenKdoToLami/UpNext/internal/federation"
	"github.com/TenKdoToLami/UpNext/internal/metrics"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/provider"
	"github.com/TenKdoToLami/UpNext/internal/provider/anilist"
	"github.com/TenKdoToLami/UpNext/internal/provider/comicvine"
	"github.com/TenKdoToLami/UpNext/internal/provider/googlebooks"
	"github.com/TenKdoToLami/UpNext/internal/provider/mangadex"
	"github.com/TenKdoToLami/UpNext/internal/provider/openlibrary"
	"github.com/TenKdoToLami/UpNext/internal/provider/tmdb"
	"github.com/TenKdoToLami/UpNext/internal/provider/tvmaze"
)

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Int("server_port", cfg.Server.Port).
		Str("server_address", cfg.Server.Address).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Application started with configuration")

	// Seed the credential store from config; keys stay mutable at runtime
	// through the API surface.
	creds := credentials.NewStore()
	creds.Set(models.SourceTMDB, cfg.Providers.TMDBKey)
	creds.Set(models.SourceComicVine, cfg.Providers.ComicVineKey)
	creds.Set(models.SourceGoogleBooks, cfg.Providers.GoogleBooksKey)

	registry := provider.NewRegistry(
		anilist.New(cfg),
		tmdb.New(cfg, creds),
		openlibrary.New(cfg),
		tvmaze.New(cfg),
		mangadex.New(cfg),
		googlebooks.New(cfg, creds),
		comicvine.New(cfg, creds),
	)
	service := federation.NewService(registry, creds)
	apiServer := api.NewServer(service, cfg.Server.Address, cfg.Server.Port)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown API server")
		}
	}()

	if err := apiServer.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to serve API")
	}

	logger.Info().Msg("Server stopped gracefully")
}
