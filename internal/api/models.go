package api

import (
	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/service"
)

// Common request/response structures

// LevelParams names one hierarchy node in a request. ProgramID is always
// required; supplying LocationID without ClinicID is rejected by level
// validation.
type LevelParams struct {
	ProgramID  string `json:"program_id" validate:"required"`
	ClinicID   string `json:"clinic_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
}

// Level converts the request fields into the domain tagged union.
func (p LevelParams) Level() domain.Level {
	switch {
	case p.LocationID != "":
		return domain.LocationLevel(p.ProgramID, p.ClinicID, p.LocationID)
	case p.ClinicID != "":
		return domain.ClinicLevel(p.ProgramID, p.ClinicID)
	default:
		return domain.ProgramLevel(p.ProgramID)
	}
}

// CreateProgramRequest defines the payload for the program creation endpoint.
type CreateProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Prefix      string `json:"prefix" validate:"required,max=8"`
	Type        string `json:"type" validate:"required,oneof=standalone clinic_based attached"`
	ClientID    string `json:"client_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// AttachProgramRequest defines the payload for attaching a shared-service
// program under a parent program.
type AttachProgramRequest struct {
	AttachedProgramID string `json:"attached_program_id" validate:"required"`
	RelationshipType  string `json:"relationship_type" validate:"required,oneof=uses requires optional"`
}

// CreateClinicRequest defines the payload for the clinic creation endpoint.
type CreateClinicRequest struct {
	ProgramID   string `json:"program_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateLocationRequest defines the payload for the location creation endpoint.
type CreateLocationRequest struct {
	ClinicID string `json:"clinic_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code,omitempty"`
	Address  string `json:"address,omitempty"`
}

// SetValueRequest defines the payload for the value write endpoint.
type SetValueRequest struct {
	LevelParams
	Key            string `json:"key" validate:"required"`
	Value          string `json:"value"`
	Source         string `json:"source,omitempty" validate:"omitempty,oneof=default manual import propagated clinic_portal"`
	SourceDocument string `json:"source_document,omitempty"`
	Rationale      string `json:"rationale,omitempty"`
	ChangedBy      string `json:"changed_by" validate:"required"`
	Raw            bool   `json:"raw,omitempty"`
}

// PropagateRequest defines the payload for the propagation endpoint.
type PropagateRequest struct {
	Key       string `json:"key" validate:"required"`
	Value     string `json:"value"`
	ProgramID string `json:"program_id" validate:"required"`
	Force     bool   `json:"force,omitempty"`
	ChangedBy string `json:"changed_by" validate:"required"`
}

// ClearProgramRequest defines the payload for the bulk clear endpoint.
type ClearProgramRequest struct {
	KeepStructure bool `json:"keep_structure,omitempty"`
}

// ImportRequest defines the payload for the parsed-document import
// endpoint. Document is the parser's output, forwarded as-is.
type ImportRequest struct {
	SourceDocument string                 `json:"source_document" validate:"required"`
	Document       service.ParsedDocument `json:"document" validate:"required"`
}

// ResolveAllResponse wraps a batch resolution result.
type ResolveAllResponse struct {
	Level  LevelParams                      `json:"level"`
	Values map[string]domain.EffectiveValue `json:"values"`
}
