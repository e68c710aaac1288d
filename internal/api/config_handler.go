package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glewis05/configurations-toolkit/internal/api/shared"
	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/service"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// ConfigHandler handles configuration value HTTP requests: resolution,
// writes, history, explanation, propagation, validation, import, and
// bulk clear.
type ConfigHandler struct {
	resolver   *service.Resolver
	mutator    *service.Mutator
	propagator *service.Propagator
	validator  *service.Validator
	explainer  *service.Explainer
	importer   *service.Importer
	history    store.HistoryStore
	logger     *slog.Logger
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(
	resolver *service.Resolver,
	mutator *service.Mutator,
	propagator *service.Propagator,
	validator *service.Validator,
	explainer *service.Explainer,
	importer *service.Importer,
	history store.HistoryStore,
	logger *slog.Logger,
) *ConfigHandler {
	if resolver == nil || mutator == nil || propagator == nil ||
		validator == nil || explainer == nil || importer == nil || history == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("all services are required for ConfigHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigHandler{
		resolver:   resolver,
		mutator:    mutator,
		propagator: propagator,
		validator:  validator,
		explainer:  explainer,
		importer:   importer,
		history:    history,
		logger:     logger.With(slog.String("component", "config_handler")),
	}
}

// levelFromQuery builds the hierarchy level from the query string.
func levelFromQuery(r *http.Request) LevelParams {
	q := r.URL.Query()
	return LevelParams{
		ProgramID:  q.Get("program_id"),
		ClinicID:   q.Get("clinic_id"),
		LocationID: q.Get("location_id"),
	}
}

// Resolve handles GET /config/resolve requests.
// Query: key, program_id, clinic_id?, location_id?
func (h *ConfigHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "key is required")
		return
	}

	result, err := h.resolver.ResolveOne(r.Context(), key, levelFromQuery(r).Level())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resolve value")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ResolveAll handles GET /config/resolve-all requests.
// Query: program_id, clinic_id?, location_id?
func (h *ConfigHandler) ResolveAll(w http.ResponseWriter, r *http.Request) {
	params := levelFromQuery(r)
	values, err := h.resolver.ResolveAll(r.Context(), params.Level())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resolve values")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ResolveAllResponse{Level: params, Values: values})
}

// Overrides handles GET /config/overrides requests.
func (h *ConfigHandler) Overrides(w http.ResponseWriter, r *http.Request) {
	rows, err := h.resolver.Overrides(r.Context(), levelFromQuery(r).Level())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list overrides")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rows)
}

// SetValue handles POST /config/values requests
func (h *ConfigHandler) SetValue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SetValueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	value, err := h.mutator.SetValue(r.Context(), service.SetValueParams{
		Key:               req.Key,
		Value:             req.Value,
		Level:             req.Level(),
		Source:            domain.ValueSource(req.Source),
		SourceDocument:    req.SourceDocument,
		Rationale:         req.Rationale,
		ChangedBy:         req.ChangedBy,
		SkipNormalization: req.Raw,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to set value")
		return
	}

	log.Debug("value set via API",
		slog.String("config_key", req.Key),
		slog.String("program_id", req.ProgramID))
	shared.RespondWithJSON(w, r, http.StatusOK, value)
}

// History handles GET /config/history requests.
// Query: key, program_id, clinic_id?, location_id?
func (h *ConfigHandler) History(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "key is required")
		return
	}

	entries, err := h.history.ListForValue(r.Context(), key, levelFromQuery(r).Level())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// ProgramHistory handles GET /programs/{id}/history requests.
// Query: from?, to? as RFC 3339 dates or timestamps.
func (h *ConfigHandler) ProgramHistory(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid to date")
		return
	}

	entries, err := h.history.ListForProgram(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// Explain handles GET /config/explain requests.
func (h *ConfigHandler) Explain(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "key is required")
		return
	}

	chain, err := h.explainer.ExplainChain(r.Context(), key, levelFromQuery(r).Level())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to explain value")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, chain)
}

// Tree handles GET /config/tree requests.
// Query: key, program_id. With format=text the tree renders as indented
// plain text instead of JSON.
func (h *ConfigHandler) Tree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	programID := q.Get("program_id")
	if key == "" || programID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "key and program_id are required")
		return
	}

	tree, err := h.explainer.BuildTree(r.Context(), key, programID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build tree")
		return
	}

	if q.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(service.RenderTree(tree))); err != nil {
			h.logger.Error("failed to write tree response", slog.String("error", err.Error()))
		}
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tree)
}

// Propagate handles POST /config/propagate requests
func (h *ConfigHandler) Propagate(w http.ResponseWriter, r *http.Request) {
	var req PropagateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.propagator.PropagateDown(r.Context(), req.Key, req.Value, req.ProgramID, req.Force, req.ChangedBy)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to propagate value")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Validate handles GET /programs/{id}/validate requests
func (h *ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	findings, err := h.validator.ValidateConsistency(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to validate program")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, findings)
}

// Import handles POST /programs/{id}/import requests
func (h *ConfigHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.importer.ImportParsedDocument(r.Context(), req.Document, chi.URLParam(r, "id"), req.SourceDocument)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import document")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Clear handles POST /programs/{id}/clear requests
func (h *ConfigHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req ClearProgramRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.mutator.ClearProgramData(r.Context(), chi.URLParam(r, "id"), req.KeepStructure)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear program data")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates.
func parseTimeParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
