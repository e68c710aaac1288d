package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

func findingsOfKind(findings []Finding, kind FindingKind) []Finding {
	out := []Finding{}
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestValidateConsistencyCleanProgram(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, _, _ := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")

	validator, err := NewValidator(env.hierarchy, env.definitions, env.values, nil)
	require.NoError(t, err)

	findings, err := validator.ValidateConsistency(ctx, program.ID)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestValidateConsistencyOrphanedRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, locations := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	mutator := env.newMutator(t)

	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0400",
		Level:     domain.LocationLevel(program.ID, clinic.ID, locations[0].ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	// Removing the structure strands the value row.
	_, err = env.hierarchy.DeleteLocations(ctx, program.ID)
	require.NoError(t, err)
	_, err = env.hierarchy.DeleteClinics(ctx, program.ID)
	require.NoError(t, err)

	validator, err := NewValidator(env.hierarchy, env.definitions, env.values, nil)
	require.NoError(t, err)

	findings, err := validator.ValidateConsistency(ctx, program.ID)
	require.NoError(t, err)
	assert.Len(t, findingsOfKind(findings, FindingOrphanedClinic), 1)
	assert.Len(t, findingsOfKind(findings, FindingOrphanedLocation), 1)
}

func TestValidateConsistencyWrongLevel(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, _ := env.seedProgram(t)

	def := &domain.ConfigDefinition{
		Key:         "program_name_display",
		Category:    "branding",
		DisplayName: "Program Display Name",
		DataType:    domain.DataTypeString,
		AppliesTo:   domain.AppliesToProgram,
	}
	require.NoError(t, env.definitions.Upsert(ctx, def))

	// Writes do not enforce applies_to; validation reports the drift.
	mutator := env.newMutator(t)
	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "program_name_display",
		Value:     "Denver Edition",
		Level:     domain.ClinicLevel(program.ID, clinic.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	validator, err := NewValidator(env.hierarchy, env.definitions, env.values, nil)
	require.NoError(t, err)

	findings, err := validator.ValidateConsistency(ctx, program.ID)
	require.NoError(t, err)
	wrong := findingsOfKind(findings, FindingWrongLevel)
	require.Len(t, wrong, 1)
	assert.Equal(t, "program_name_display", wrong[0].Key)
}

func TestValidateConsistencyMissingRequired(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, _, _ := env.seedProgram(t)

	def := &domain.ConfigDefinition{
		Key:         "helpdesk_phone",
		Category:    "support",
		DisplayName: "Helpdesk Phone",
		DataType:    domain.DataTypePhone,
		AppliesTo:   domain.AppliesToAll,
		IsRequired:  true,
	}
	require.NoError(t, env.definitions.Upsert(ctx, def))

	validator, err := NewValidator(env.hierarchy, env.definitions, env.values, nil)
	require.NoError(t, err)

	findings, err := validator.ValidateConsistency(ctx, program.ID)
	require.NoError(t, err)
	require.Len(t, findingsOfKind(findings, FindingMissingRequired), 1)

	// Satisfied by a program-level value.
	mutator := env.newMutator(t)
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "800.555.0100",
		Level:     domain.ProgramLevel(program.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	findings, err = validator.ValidateConsistency(ctx, program.ID)
	require.NoError(t, err)
	assert.Empty(t, findingsOfKind(findings, FindingMissingRequired))
}

func TestValidateConsistencyUnknownProgram(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	validator, err := NewValidator(env.hierarchy, env.definitions, env.values, nil)
	require.NoError(t, err)

	_, err = validator.ValidateConsistency(context.Background(), "NOPE-0000")
	assert.ErrorIs(t, err, store.ErrProgramNotFound)
}
