package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glewis05/configurations-toolkit/internal/api/shared"
	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// HierarchyHandler handles program, clinic, and location HTTP requests
type HierarchyHandler struct {
	hierarchy store.HierarchyStore
	logger    *slog.Logger
}

// NewHierarchyHandler creates a new HierarchyHandler
func NewHierarchyHandler(hierarchy store.HierarchyStore, logger *slog.Logger) *HierarchyHandler {
	if hierarchy == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("hierarchy store cannot be nil for HierarchyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HierarchyHandler{
		hierarchy: hierarchy,
		logger:    logger.With(slog.String("component", "hierarchy_handler")),
	}
}

// CreateProgram handles POST /programs requests
func (h *HierarchyHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateProgramRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	program, err := domain.NewProgram(req.Name, req.Prefix, domain.ProgramType(req.Type))
	if err != nil {
		HandleAPIError(w, r, err, "Invalid program data")
		return
	}
	program.ClientID = req.ClientID
	program.Description = req.Description

	if err := h.hierarchy.CreateProgram(r.Context(), program); err != nil {
		HandleAPIError(w, r, err, "Failed to create program")
		return
	}

	log.Info("program created via API", slog.String("program_id", program.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, program)
}

// GetProgram handles GET /programs/{id} requests. The path segment is a
// flexible identifier: program ID, prefix, or name.
func (h *HierarchyHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "id")
	if identifier == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Program identifier is required")
		return
	}

	program, err := h.hierarchy.GetProgram(r.Context(), identifier)
	if err != nil {
		program, err = h.hierarchy.FindProgram(r.Context(), identifier)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get program")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, program)
}

// AttachProgram handles POST /programs/{id}/attachments requests
func (h *HierarchyHandler) AttachProgram(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")

	var req AttachProgramRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	rel, err := domain.NewProgramRelationship(parentID, req.AttachedProgramID,
		domain.RelationshipType(req.RelationshipType))
	if err != nil {
		HandleAPIError(w, r, err, "Invalid relationship data")
		return
	}

	if err := h.hierarchy.AttachProgram(r.Context(), rel); err != nil {
		HandleAPIError(w, r, err, "Failed to attach program")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, rel)
}

// ListAttachedPrograms handles GET /programs/{id}/attachments requests
func (h *HierarchyHandler) ListAttachedPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.hierarchy.ListAttachedPrograms(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list attached programs")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, programs)
}

// CreateClinic handles POST /clinics requests
func (h *HierarchyHandler) CreateClinic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateClinicRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	clinic, err := domain.NewClinic(req.ProgramID, req.Name, req.Code)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid clinic data")
		return
	}
	clinic.Description = req.Description

	if err := h.hierarchy.CreateClinic(r.Context(), clinic); err != nil {
		HandleAPIError(w, r, err, "Failed to create clinic")
		return
	}

	log.Info("clinic created via API",
		slog.String("clinic_id", clinic.ID),
		slog.String("program_id", clinic.ProgramID))
	shared.RespondWithJSON(w, r, http.StatusCreated, clinic)
}

// ListClinics handles GET /programs/{id}/clinics requests
func (h *HierarchyHandler) ListClinics(w http.ResponseWriter, r *http.Request) {
	clinics, err := h.hierarchy.ListClinics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list clinics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, clinics)
}

// CreateLocation handles POST /locations requests
func (h *HierarchyHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	location, err := domain.NewLocation(req.ClinicID, req.Name, req.Code, req.Address)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid location data")
		return
	}

	if err := h.hierarchy.CreateLocation(r.Context(), location); err != nil {
		HandleAPIError(w, r, err, "Failed to create location")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, location)
}

// ListLocations handles GET /clinics/{id}/locations requests
func (h *HierarchyHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.hierarchy.ListLocations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list locations")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, locations)
}
