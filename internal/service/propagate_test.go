package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

func TestPropagateDownUnknownProgram(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")

	propagator, err := NewPropagator(env.hierarchy, env.values, env.newMutator(t), nil)
	require.NoError(t, err)

	// A program with no clinics would otherwise report a silent no-op.
	result, err := propagator.PropagateDown(context.Background(),
		"helpdesk_phone", "800.555.0200", "P4M-00000000", false, "tester")
	assert.ErrorIs(t, err, store.ErrProgramNotFound)
	assert.Nil(t, result)
}

func TestPropagateDownSkipsExistingRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinicA, _ := env.seedProgram(t)
	clinicB, err := domain.NewClinic(program.ID, "Boulder Clinic", "BLD")
	require.NoError(t, err)
	require.NoError(t, env.hierarchy.CreateClinic(ctx, clinicB))

	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	mutator := env.newMutator(t)

	// Clinic A has deliberately diverged.
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0300",
		Level:     domain.ClinicLevel(program.ID, clinicA.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	propagator, err := NewPropagator(env.hierarchy, env.values, mutator, nil)
	require.NoError(t, err)

	result, err := propagator.PropagateDown(ctx, "helpdesk_phone", "800.555.0200", program.ID, false, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{clinicA.ID}, result.SkippedIDs)

	// Clinic A kept its value, clinic B received the push.
	row, err := env.values.GetAtLevel(ctx, "helpdesk_phone", domain.ClinicLevel(program.ID, clinicA.ID))
	require.NoError(t, err)
	assert.Equal(t, "303.555.0300", row.Value)

	row, err = env.values.GetAtLevel(ctx, "helpdesk_phone", domain.ClinicLevel(program.ID, clinicB.ID))
	require.NoError(t, err)
	assert.Equal(t, "800.555.0200", row.Value)
	assert.Equal(t, domain.SourcePropagated, row.Source)
}

func TestPropagateDownForceOverwrites(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, _ := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	mutator := env.newMutator(t)

	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0300",
		Level:     domain.ClinicLevel(program.ID, clinic.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	propagator, err := NewPropagator(env.hierarchy, env.values, mutator, nil)
	require.NoError(t, err)

	result, err := propagator.PropagateDown(ctx, "helpdesk_phone", "800.555.0200", program.ID, true, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Skipped)

	row, err := env.values.GetAtLevel(ctx, "helpdesk_phone", domain.ClinicLevel(program.ID, clinic.ID))
	require.NoError(t, err)
	assert.Equal(t, "800.555.0200", row.Value)

	// Forced propagation still leaves an audit trail for the overwrite.
	entries, err := env.history.ListForValue(ctx, "helpdesk_phone", domain.ClinicLevel(program.ID, clinic.ID))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
