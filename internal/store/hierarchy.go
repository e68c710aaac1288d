package store

import (
	"context"
	"database/sql"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// HierarchyStore defines the interface for Program, Clinic and Location
// persistence. Pure data access; hierarchy records carry no algorithm.
type HierarchyStore interface {
	// CreateProgram saves a new program.
	// Returns ErrDuplicate if a program with the same ID already exists.
	CreateProgram(ctx context.Context, program *domain.Program) error

	// GetProgram retrieves a program by its unique ID.
	// Returns ErrProgramNotFound if the program does not exist.
	GetProgram(ctx context.Context, id string) (*domain.Program, error)

	// FindProgram looks a program up by prefix, exact name, then
	// case-insensitive partial name, in that order.
	// Returns ErrProgramNotFound when nothing matches.
	FindProgram(ctx context.Context, identifier string) (*domain.Program, error)

	// AttachProgram records a relationship between a parent program and an
	// attached shared-service program. The generated relationship ID is
	// written back to rel.
	AttachProgram(ctx context.Context, rel *domain.ProgramRelationship) error

	// ListAttachedPrograms returns the programs attached under the given
	// parent program.
	ListAttachedPrograms(ctx context.Context, parentID string) ([]*domain.Program, error)

	// CreateClinic saves a new clinic under its program.
	// Returns ErrProgramNotFound if the owning program does not exist.
	CreateClinic(ctx context.Context, clinic *domain.Clinic) error

	// GetClinic retrieves a clinic by its unique ID.
	// Returns ErrClinicNotFound if the clinic does not exist.
	GetClinic(ctx context.Context, id string) (*domain.Clinic, error)

	// FindClinicByName looks a clinic up within a program by partial,
	// case-insensitive name match.
	// Returns ErrClinicNotFound when nothing matches.
	FindClinicByName(ctx context.Context, programID, name string) (*domain.Clinic, error)

	// ListClinics returns all clinics under a program, ordered by name.
	ListClinics(ctx context.Context, programID string) ([]*domain.Clinic, error)

	// CreateLocation saves a new location under its clinic.
	// Returns ErrClinicNotFound if the owning clinic does not exist.
	CreateLocation(ctx context.Context, location *domain.Location) error

	// GetLocation retrieves a location by its unique ID.
	// Returns ErrLocationNotFound if the location does not exist.
	GetLocation(ctx context.Context, id string) (*domain.Location, error)

	// ListLocations returns all locations under a clinic, ordered by name.
	ListLocations(ctx context.Context, clinicID string) ([]*domain.Location, error)

	// ListProgramLocationIDs returns the IDs of every location that exists
	// under the program, across all of its clinics. Used by consistency
	// validation to detect orphaned value rows in one round trip.
	ListProgramLocationIDs(ctx context.Context, programID string) ([]string, error)

	// DeleteClinics removes all clinics under a program and returns the
	// number deleted. Locations must be deleted first.
	DeleteClinics(ctx context.Context, programID string) (int64, error)

	// DeleteLocations removes all locations under a program's clinics and
	// returns the number deleted.
	DeleteLocations(ctx context.Context, programID string) (int64, error)

	// WithTx returns a new HierarchyStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) HierarchyStore
}

// HierarchyTree is the fully expanded Program → Clinic → Location shape
// used by the explainer and reporting consumers.
type HierarchyTree struct {
	Program *domain.Program
	Clinics []HierarchyClinic
}

// HierarchyClinic is one clinic node of a HierarchyTree.
type HierarchyClinic struct {
	Clinic    *domain.Clinic
	Locations []*domain.Location
}
