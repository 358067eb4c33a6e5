package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cart-offer/internal/config"
	"cart-offer/internal/database"
	"cart-offer/internal/handler"
	"cart-offer/internal/repository"
	"cart-offer/internal/router"
	"cart-offer/internal/segment"
	"cart-offer/internal/service"
	"cart-offer/internal/tracing"

	"github.com/rs/zerolog"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", version).Msg("starting cart-offer API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(cfg.Tracing, config.ServiceName, version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	offerRepo, closeStore, err := newOfferRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	resolver, closeResolver, err := newSegmentResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeResolver()

	// Initialize services
	offerService := service.NewOfferService(offerRepo, resolver, logger)

	// Initialize HTTP handlers
	offerHandler := handler.NewOfferHandler(offerService, logger)
	cartHandler := handler.NewCartHandler(offerService, logger)

	// Initialize router
	mux := router.New(offerHandler, cartHandler, router.Options{
		APIKey:      cfg.Auth.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, logger)

	if cfg.Auth.APIKey == "" {
		logger.Warn().Msg("API_KEY not set, authentication disabled")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("store", cfg.Store.Driver).
			Str("segment_source", cfg.Segment.Source).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newOfferRepository opens the configured offer store and applies its schema.
func newOfferRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.OfferRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewOfferRepository(pool, logger), pool.Close, nil

	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := repository.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewSQLiteOfferRepository(db, logger), func() { db.Close() }, nil

	default:
		logger.Info().Msg("using in-memory offer store")
		return repository.NewMemoryOfferRepository(logger), func() {}, nil
	}
}

// newSegmentResolver builds the user to segment resolver for the configured source.
func newSegmentResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (segment.Resolver, func(), error) {
	if cfg.Segment.Source == config.SegmentSourceHTTP {
		return newHTTPSegmentResolver(ctx, cfg, logger)
	}

	if len(cfg.Segment.Files) == 0 {
		logger.Info().Msg("no segment files configured, using built-in segment table")
		return segment.NewTableResolver(segment.DefaultTable()), func() {}, nil
	}

	// Segment files come from S3 when enabled, with the local file system as fallback
	fileLoader := segment.NewFileLoader(logger)
	var s3Loader segment.Loader
	if cfg.S3.Enabled {
		l, err := segment.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for segment files (S3 disabled)")
	}

	loader := segment.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, s3Loader != nil, logger)

	table, err := segment.LoadTable(ctx, loader, cfg.Segment.Files, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load segment table: %w", err)
	}

	return segment.NewTableResolver(table), func() {}, nil
}

// newHTTPSegmentResolver calls the external segment service, optionally behind a cache.
func newHTTPSegmentResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (segment.Resolver, func(), error) {
	resolver := segment.NewHTTPResolver(cfg.Segment.ServiceURL, segment.NewHTTPClient(cfg.Segment.Timeout()), logger)

	ttl := cfg.Segment.CacheTTL()
	if ttl == 0 {
		logger.Info().Msg("segment cache disabled")
		return resolver, func() {}, nil
	}

	if cfg.Redis.Addr == "" {
		logger.Info().Dur("ttl", ttl).Msg("using in-memory segment cache")
		return segment.NewCachingResolver(resolver, segment.NewMemoryCache(), ttl, logger), func() {}, nil
	}

	cache, closeCache, err := segment.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize segment cache: %w", err)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", ttl).Msg("using Redis segment cache")

	closer := func() {
		if err := closeCache(); err != nil {
			logger.Error().Err(err).Msg("failed to close Redis client")
		}
	}

	return segment.NewCachingResolver(resolver, cache, ttl, logger), closer, nil
}
