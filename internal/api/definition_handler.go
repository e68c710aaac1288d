package api

import (
	"log/slog"
	"net/http"

	"github.com/glewis05/configurations-toolkit/internal/api/shared"
	"github.com/glewis05/configurations-toolkit/internal/service"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// DefinitionHandler handles configuration definition catalog requests.
type DefinitionHandler struct {
	definitions store.DefinitionStore
	loader      *service.CatalogLoader
	logger      *slog.Logger
}

// NewDefinitionHandler creates a new DefinitionHandler
func NewDefinitionHandler(definitions store.DefinitionStore, loader *service.CatalogLoader, logger *slog.Logger) *DefinitionHandler {
	if definitions == nil || loader == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("definition store and catalog loader are required for DefinitionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DefinitionHandler{
		definitions: definitions,
		loader:      loader,
		logger:      logger.With(slog.String("component", "definition_handler")),
	}
}

// List handles GET /definitions requests
func (h *DefinitionHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.definitions.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list definitions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, defs)
}

// Load handles POST /definitions requests. The request body is a YAML
// catalog document; existing definitions with matching keys are updated.
func (h *DefinitionHandler) Load(w http.ResponseWriter, r *http.Request) {
	count, err := h.loader.LoadDefinitions(r.Context(), r.Body)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load definitions")
		return
	}
	h.logger.Info("definition catalog loaded via API", slog.Int("count", count))
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int{"loaded": count})
}
