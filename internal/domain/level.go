package domain

import "errors"

// LevelKind identifies one tier of the Program → Clinic → Location hierarchy.
type LevelKind string

// Hierarchy tiers, in decreasing order of generality. LevelDefault is not a
// storage tier: it marks a value that came from the definition catalog.
const (
	LevelProgram  LevelKind = "program"
	LevelClinic   LevelKind = "clinic"
	LevelLocation LevelKind = "location"
	LevelDefault  LevelKind = "default"
)

// Common validation errors for Level
var (
	ErrEmptyProgramID  = errors.New("level program ID cannot be empty")
	ErrEmptyClinicID   = errors.New("level clinic ID cannot be empty")
	ErrEmptyLocationID = errors.New("level location ID cannot be empty")
	ErrNoParentLevel   = errors.New("program level has no parent")
)

// Level pins a configuration value to exactly one node of the hierarchy.
// It is a tagged union over the three tiers: which IDs are set determines
// the tier, so the "is this row program- or clinic-level" question is
// answered in one place instead of scattered null checks. Persisted rows
// still use nullable clinic/location columns; Level is the in-process form.
type Level struct {
	ProgramID  string
	ClinicID   string
	LocationID string
}

// ProgramLevel returns a Level addressing the program tier.
func ProgramLevel(programID string) Level {
	return Level{ProgramID: programID}
}

// ClinicLevel returns a Level addressing a clinic under a program.
func ClinicLevel(programID, clinicID string) Level {
	return Level{ProgramID: programID, ClinicID: clinicID}
}

// LocationLevel returns a Level addressing a location under a clinic.
func LocationLevel(programID, clinicID, locationID string) Level {
	return Level{ProgramID: programID, ClinicID: clinicID, LocationID: locationID}
}

// Kind reports which hierarchy tier this level addresses.
func (l Level) Kind() LevelKind {
	switch {
	case l.LocationID != "":
		return LevelLocation
	case l.ClinicID != "":
		return LevelClinic
	default:
		return LevelProgram
	}
}

// Validate checks that the Level's IDs are consistent with its tier.
// A location level must carry its clinic ID; a clinic level must carry
// its program ID.
func (l Level) Validate() error {
	if l.ProgramID == "" {
		return ErrEmptyProgramID
	}
	if l.LocationID != "" && l.ClinicID == "" {
		return ErrEmptyClinicID
	}
	return nil
}

// Parent returns the level one tier up. Returns ErrNoParentLevel when
// called on a program level, which has no ancestor inside the store.
func (l Level) Parent() (Level, error) {
	switch l.Kind() {
	case LevelLocation:
		return ClinicLevel(l.ProgramID, l.ClinicID), nil
	case LevelClinic:
		return ProgramLevel(l.ProgramID), nil
	default:
		return Level{}, ErrNoParentLevel
	}
}

// Candidates returns the resolution walk for this level, most specific
// first: location (if addressed), clinic (if addressed), then program.
func (l Level) Candidates() []Level {
	out := make([]Level, 0, 3)
	if l.LocationID != "" {
		out = append(out, l)
	}
	if l.ClinicID != "" {
		out = append(out, ClinicLevel(l.ProgramID, l.ClinicID))
	}
	out = append(out, ProgramLevel(l.ProgramID))
	return out
}
