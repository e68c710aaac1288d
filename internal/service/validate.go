package service

import (
	"context"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// FindingKind classifies one consistency problem.
type FindingKind string

// Finding kinds reported by ValidateConsistency.
const (
	FindingOrphanedClinic   FindingKind = "orphaned_clinic_config"
	FindingOrphanedLocation FindingKind = "orphaned_location_config"
	FindingWrongLevel       FindingKind = "wrong_level"
	FindingMissingRequired  FindingKind = "missing_required"
)

// Finding is one consistency problem detected under a program. Findings
// are reported, never auto-repaired; remediation is a separate, explicit
// operation.
type Finding struct {
	Kind    FindingKind  `json:"kind"`
	Key     string       `json:"key,omitempty"`
	Level   domain.Level `json:"level,omitempty"`
	Message string       `json:"message"`
}

// Validator scans a program's stored values for structural problems.
type Validator struct {
	hierarchy   store.HierarchyStore
	definitions store.DefinitionStore
	values      store.ValueStore
	logger      *slog.Logger
}

// NewValidator creates a new Validator.
// It returns an error if any of the required dependencies are nil.
func NewValidator(
	hierarchy store.HierarchyStore,
	definitions store.DefinitionStore,
	values store.ValueStore,
	logger *slog.Logger,
) (*Validator, error) {
	if hierarchy == nil {
		return nil, NewConfigServiceError("new_validator", "hierarchy store cannot be nil", nil)
	}
	if definitions == nil {
		return nil, NewConfigServiceError("new_validator", "definitions store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_validator", "values store cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		hierarchy:   hierarchy,
		definitions: definitions,
		values:      values,
		logger:      logger.With(slog.String("component", "validator")),
	}, nil
}

// ValidateConsistency scans one program for three classes of problems:
// value rows referencing clinics or locations that no longer exist under
// the program, value rows at a tier the key's applies_to constraint
// forbids, and required keys with neither a catalog default nor a
// program-level value.
func (v *Validator) ValidateConsistency(ctx context.Context, programID string) ([]Finding, error) {
	log := logger.FromContextOrDefault(ctx, v.logger)

	if _, err := v.hierarchy.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	clinics, err := v.hierarchy.ListClinics(ctx, programID)
	if err != nil {
		return nil, err
	}
	clinicIDs := make(map[string]bool, len(clinics))
	for _, c := range clinics {
		clinicIDs[c.ID] = true
	}

	locationIDs, err := v.hierarchy.ListProgramLocationIDs(ctx, programID)
	if err != nil {
		return nil, err
	}
	locations := make(map[string]bool, len(locationIDs))
	for _, id := range locationIDs {
		locations[id] = true
	}

	rows, err := v.values.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	defs, err := v.definitions.List(ctx)
	if err != nil {
		return nil, err
	}
	defsByKey := make(map[string]*domain.ConfigDefinition, len(defs))
	for _, d := range defs {
		defsByKey[d.Key] = d
	}

	findings := []Finding{}
	programHasValue := make(map[string]bool)

	for _, row := range rows {
		if row.Level.Kind() == domain.LevelProgram {
			programHasValue[row.Key] = true
		}

		if row.Level.ClinicID != "" && !clinicIDs[row.Level.ClinicID] {
			findings = append(findings, Finding{
				Kind:    FindingOrphanedClinic,
				Key:     row.Key,
				Level:   row.Level,
				Message: "value references clinic " + row.Level.ClinicID + " which does not exist under the program",
			})
		}
		if row.Level.LocationID != "" && !locations[row.Level.LocationID] {
			findings = append(findings, Finding{
				Kind:    FindingOrphanedLocation,
				Key:     row.Key,
				Level:   row.Level,
				Message: "value references location " + row.Level.LocationID + " which does not exist under the program",
			})
		}

		if def, ok := defsByKey[row.Key]; ok && !def.AllowsLevel(row.Level.Kind()) {
			findings = append(findings, Finding{
				Kind:  FindingWrongLevel,
				Key:   row.Key,
				Level: row.Level,
				Message: "key applies to " + string(def.AppliesTo) +
					" but has a row at " + string(row.Level.Kind()) + " level",
			})
		}
	}

	for _, def := range defs {
		if def.IsRequired && !def.HasDefault() && !programHasValue[def.Key] {
			findings = append(findings, Finding{
				Kind:    FindingMissingRequired,
				Key:     def.Key,
				Message: "required key has no default and no program-level value",
			})
		}
	}

	log.Info("consistency validated",
		slog.String("program_id", programID),
		slog.Int("finding_count", len(findings)))
	return findings, nil
}
