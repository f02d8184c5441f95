package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cat-sightings-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cat-sightings-service/internal/adapter/kafka"
	"github.com/couchcryptid/cat-sightings-service/internal/adapter/mapbox"
	"github.com/couchcryptid/cat-sightings-service/internal/adapter/sheets"
	"github.com/couchcryptid/cat-sightings-service/internal/config"
	"github.com/couchcryptid/cat-sightings-service/internal/dataset"
	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
	"github.com/couchcryptid/cat-sightings-service/internal/pipeline"
	"github.com/couchcryptid/cat-sightings-service/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Optional sighting feed (enabled by KAFKA_BROKERS).
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.FeedEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("sighting feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSightingsTopic)
	}

	fetcher := sheets.NewClient(cfg, metrics, logger)
	transformer := pipeline.NewTransformer(domain.ConvertOptions{
		Location:             cfg.Location,
		KeepInvalidPositions: cfg.KeepInvalidPositions,
	}, logger)
	p := pipeline.New(fetcher, transformer, publisher, nil, logger, metrics)

	cache := dataset.New(p, metrics, logger)
	views := view.NewService(cache, view.NewFilterState(filter.DefaultConfig()), geocoder, nil,
		view.Options{Location: cfg.Location}, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, views, cache, cfg.CORSOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the cache. A failure here is retried by the first request.
	go func() {
		if _, err := cache.Get(ctx); err != nil {
			logger.Warn("initial dataset load failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := p.Wait(shutdownCtx); err != nil {
		logger.Error("sighting feed publish did not finish", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
