package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glewis05/configurations-toolkit/internal/api"
	apiMiddleware "github.com/glewis05/configurations-toolkit/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	hierarchyHandler := api.NewHierarchyHandler(app.hierarchyStore, app.logger)
	configHandler := api.NewConfigHandler(
		app.resolver,
		app.mutator,
		app.propagator,
		app.validator,
		app.explainer,
		app.importer,
		app.historyStore,
		app.logger,
	)
	definitionHandler := api.NewDefinitionHandler(app.definitionStore, app.catalogLoader, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Hierarchy endpoints
		r.Post("/programs", hierarchyHandler.CreateProgram)
		r.Get("/programs/{id}", hierarchyHandler.GetProgram)
		r.Post("/programs/{id}/attachments", hierarchyHandler.AttachProgram)
		r.Get("/programs/{id}/attachments", hierarchyHandler.ListAttachedPrograms)
		r.Post("/programs/{id}/clinics", hierarchyHandler.CreateClinic)
		r.Get("/programs/{id}/clinics", hierarchyHandler.ListClinics)
		r.Post("/clinics/{id}/locations", hierarchyHandler.CreateLocation)
		r.Get("/clinics/{id}/locations", hierarchyHandler.ListLocations)

		// Configuration endpoints
		r.Get("/config/resolve", configHandler.Resolve)
		r.Get("/config/resolve-all", configHandler.ResolveAll)
		r.Get("/config/overrides", configHandler.Overrides)
		r.Post("/config/values", configHandler.SetValue)
		r.Get("/config/history", configHandler.History)
		r.Get("/config/explain", configHandler.Explain)
		r.Get("/config/tree", configHandler.Tree)
		r.Post("/config/propagate", configHandler.Propagate)

		// Program-scoped operations
		r.Get("/programs/{id}/history", configHandler.ProgramHistory)
		r.Get("/programs/{id}/validate", configHandler.Validate)
		r.Post("/programs/{id}/import", configHandler.Import)
		r.Post("/programs/{id}/clear", configHandler.Clear)

		// Definition catalog
		r.Get("/definitions", definitionHandler.List)
		r.Post("/definitions", definitionHandler.Load)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
