package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cart-offer/internal/config"
	"cart-offer/internal/database"
	"cart-offer/internal/repository"
)

// migrate applies the offer schema to the configured durable store and
// reports the database it connected to.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger).With().Str("component", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		var dbName string
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
			return fmt.Errorf("failed to query current database: %w", err)
		}

		if err := repository.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info().Str("database", dbName).Msg("offer schema applied")

	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := repository.MigrateSQLite(ctx, db); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.Store.SQLitePath).Msg("offer schema applied")

	default:
		logger.Info().Str("store", cfg.Store.Driver).Msg("store has no schema, nothing to migrate")
	}

	return nil
}
