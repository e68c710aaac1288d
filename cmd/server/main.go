// Package main implements the entry point for the configuration API
// server, which manages hierarchical program, clinic, and location
// configuration with inheritance-based resolution and audit history.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/glewis05/configurations-toolkit/internal/config"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd, appLogger); err != nil {
			appLogger.Error("migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.cleanup()

	if err := loadCatalogIfConfigured(context.Background(), app); err != nil {
		appLogger.Error("failed to load definition catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		appLogger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadCatalogIfConfigured seeds the definition catalog from the
// configured YAML file, if any. Missing files are a startup error since
// an explicitly configured catalog is expected to exist.
func loadCatalogIfConfigured(ctx context.Context, app *application) error {
	if app.config.Catalog.File == "" {
		return nil
	}

	f, err := os.Open(app.config.Catalog.File)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	count, err := app.catalogLoader.LoadDefinitions(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	app.logger.Info("definition catalog loaded",
		slog.String("file", app.config.Catalog.File),
		slog.Int("definitions", count))
	return nil
}
