package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/config"
	"github.com/glewis05/configurations-toolkit/internal/platform/postgres"
	"github.com/glewis05/configurations-toolkit/internal/platform/sqlite"
	"github.com/glewis05/configurations-toolkit/internal/service"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	hierarchyStore  store.HierarchyStore
	definitionStore store.DefinitionStore
	valueStore      store.ValueStore
	historyStore    store.HistoryStore

	// Services
	resolver      *service.Resolver
	mutator       *service.Mutator
	propagator    *service.Propagator
	validator     *service.Validator
	explainer     *service.Explainer
	importer      *service.Importer
	catalogLoader *service.CatalogLoader
}

// newApplication wires stores and services for the configured database
// driver. The stores are selected by driver; everything above them is
// driver-agnostic.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStores(); err != nil {
		return nil, err
	}
	if err := app.setupServices(); err != nil {
		return nil, err
	}
	return app, nil
}

func (app *application) setupStores() error {
	db, err := openDatabase(app.config, app.logger)
	if err != nil {
		return err
	}
	app.db = db

	switch app.config.Database.Driver {
	case "postgres":
		app.hierarchyStore = postgres.NewPostgresHierarchyStore(db, app.logger)
		app.definitionStore = postgres.NewPostgresDefinitionStore(db, app.logger)
		app.valueStore = postgres.NewPostgresValueStore(db, app.logger)
		app.historyStore = postgres.NewPostgresHistoryStore(db, app.logger)
	case "sqlite":
		app.hierarchyStore = sqlite.NewSQLiteHierarchyStore(db, app.logger)
		app.definitionStore = sqlite.NewSQLiteDefinitionStore(db, app.logger)
		app.valueStore = sqlite.NewSQLiteValueStore(db, app.logger)
		app.historyStore = sqlite.NewSQLiteHistoryStore(db, app.logger)
	default:
		return fmt.Errorf("unsupported database driver: %q", app.config.Database.Driver)
	}
	return nil
}

func (app *application) setupServices() error {
	resolver, err := service.NewResolver(app.definitionStore, app.valueStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}
	app.resolver = resolver

	mutator, err := service.NewMutator(
		app.db,
		app.hierarchyStore,
		app.definitionStore,
		app.valueStore,
		app.historyStore,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create mutator: %w", err)
	}
	app.mutator = mutator

	propagator, err := service.NewPropagator(app.hierarchyStore, app.valueStore, mutator, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create propagator: %w", err)
	}
	app.propagator = propagator

	validator, err := service.NewValidator(
		app.hierarchyStore,
		app.definitionStore,
		app.valueStore,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	app.validator = validator

	explainer, err := service.NewExplainer(
		app.hierarchyStore,
		app.definitionStore,
		app.valueStore,
		resolver,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create explainer: %w", err)
	}
	app.explainer = explainer

	importer, err := service.NewImporter(
		app.db,
		app.hierarchyStore,
		app.definitionStore,
		app.valueStore,
		app.historyStore,
		nil, // default fuzzy location matcher
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	app.importer = importer

	catalogLoader, err := service.NewCatalogLoader(app.definitionStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog loader: %w", err)
	}
	app.catalogLoader = catalogLoader

	return nil
}

// cleanup releases resources held by the application. Safe to call once
// during shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
}
