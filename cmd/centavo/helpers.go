package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/gastolab/centavo/internal/config"
	"github.com/gastolab/centavo/internal/engine"
	"github.com/gastolab/centavo/internal/remote"
	"github.com/gastolab/centavo/internal/service"
	"github.com/gastolab/centavo/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine builds the engine over a freshly opened storage. The caller
// owns the returned engine and must Close it.
func initEngine(ctx context.Context) (*engine.Engine, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var suggester *remote.Client
	if endpoint := viper.GetString("suggestions.endpoint"); endpoint != "" {
		suggester = remote.NewClient(endpoint)
	}

	return engine.New(store, engine.Options{Suggester: suggester}), nil
}

// closeEngine closes the engine, logging instead of failing the command.
func closeEngine(eng *engine.Engine) {
	if err := eng.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// currentUser resolves the user id for the invocation. Commands that need
// one fail fast without it.
func currentUser() (string, error) {
	userID := viper.GetString("user.id")
	if userID == "" {
		return "", fmt.Errorf("no user id configured: pass --user or set user.id in the config")
	}
	return userID, nil
}
