package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProgramType determines which hierarchy tiers are meaningful for a program.
type ProgramType string

// Possible program type values
const (
	// ProgramTypeStandalone has no clinic or location tiers of its own.
	ProgramTypeStandalone ProgramType = "standalone"
	// ProgramTypeClinicBased carries the full clinic/location hierarchy.
	ProgramTypeClinicBased ProgramType = "clinic_based"
	// ProgramTypeAttached is a shared service linked under other programs.
	ProgramTypeAttached ProgramType = "attached"
)

// RelationshipType describes how an attached program relates to its parent.
type RelationshipType string

// Possible program relationship values
const (
	RelationshipUses     RelationshipType = "uses"
	RelationshipRequires RelationshipType = "requires"
	RelationshipOptional RelationshipType = "optional"
)

// Common validation errors for Program
var (
	ErrEmptyProgramName    = errors.New("program name cannot be empty")
	ErrEmptyProgramPrefix  = errors.New("program prefix cannot be empty")
	ErrInvalidProgramType  = errors.New("invalid program type")
	ErrInvalidRelationship = errors.New("invalid program relationship type")
)

// Program is the top of the configuration hierarchy. The prefix is fixed
// at onboarding and forms the visible part of the program ID.
type Program struct {
	ID          string      `json:"id"`
	ClientID    string      `json:"client_id,omitempty"`
	Name        string      `json:"name"`
	Prefix      string      `json:"prefix"`
	Type        ProgramType `json:"type"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewProgram creates a Program with a generated ID of the form
// <PREFIX>-<hex8>. Returns an error if validation fails.
func NewProgram(name, prefix string, programType ProgramType) (*Program, error) {
	p := &Program{
		ID:        fmt.Sprintf("%s-%s", strings.ToUpper(prefix), shortHex(8)),
		Name:      name,
		Prefix:    strings.ToUpper(prefix),
		Type:      programType,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks if the Program has valid data.
func (p *Program) Validate() error {
	if p.Name == "" {
		return ErrEmptyProgramName
	}
	if p.Prefix == "" {
		return ErrEmptyProgramPrefix
	}
	if !isValidProgramType(p.Type) {
		return ErrInvalidProgramType
	}
	return nil
}

// ProgramRelationship links an attached program under a parent program.
type ProgramRelationship struct {
	ID                int64            `json:"id"`
	ParentProgramID   string           `json:"parent_program_id"`
	AttachedProgramID string           `json:"attached_program_id"`
	Type              RelationshipType `json:"type"`
	CreatedAt         time.Time        `json:"created_at"`
}

// NewProgramRelationship creates a validated relationship record.
func NewProgramRelationship(parentID, attachedID string, relType RelationshipType) (*ProgramRelationship, error) {
	rel := &ProgramRelationship{
		ParentProgramID:   parentID,
		AttachedProgramID: attachedID,
		Type:              relType,
		CreatedAt:         time.Now().UTC(),
	}
	if err := rel.Validate(); err != nil {
		return nil, err
	}
	return rel, nil
}

// Validate checks if the ProgramRelationship has valid data.
func (r *ProgramRelationship) Validate() error {
	if r.ParentProgramID == "" || r.AttachedProgramID == "" {
		return ErrEmptyProgramID
	}
	switch r.Type {
	case RelationshipUses, RelationshipRequires, RelationshipOptional:
		return nil
	default:
		return ErrInvalidRelationship
	}
}

func isValidProgramType(t ProgramType) bool {
	switch t {
	case ProgramTypeStandalone, ProgramTypeClinicBased, ProgramTypeAttached:
		return true
	default:
		return false
	}
}

// shortHex returns the first n hex characters of a fresh UUID, uppercased.
// Used to build the human-oriented IDs the hierarchy records carry.
func shortHex(n int) string {
	h := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(h[:n])
}
