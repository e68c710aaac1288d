package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

func TestResolveOnePrecedence(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, locations := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")

	mutator := env.newMutator(t)
	resolver := env.newResolver(t)

	locLevel := domain.LocationLevel(program.ID, clinic.ID, locations[0].ID)

	// Nothing stored yet: the catalog default applies everywhere.
	eff, err := resolver.ResolveOne(ctx, "helpdesk_phone", locLevel)
	require.NoError(t, err)
	assert.True(t, eff.Found)
	assert.Equal(t, "800.555.0100", eff.Value)
	assert.Equal(t, domain.LevelDefault, eff.Level)

	// A program row shadows the default for the whole hierarchy.
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "800.555.0200",
		Level:     domain.ProgramLevel(program.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	eff, err = resolver.ResolveOne(ctx, "helpdesk_phone", locLevel)
	require.NoError(t, err)
	assert.Equal(t, "800.555.0200", eff.Value)
	assert.Equal(t, domain.LevelProgram, eff.Level)

	// A clinic row shadows the program row below it.
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0300",
		Level:     domain.ClinicLevel(program.ID, clinic.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	eff, err = resolver.ResolveOne(ctx, "helpdesk_phone", locLevel)
	require.NoError(t, err)
	assert.Equal(t, "303.555.0300", eff.Value)
	assert.Equal(t, domain.LevelClinic, eff.Level)

	// A location row wins over everything.
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0400",
		Level:     locLevel,
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	eff, err = resolver.ResolveOne(ctx, "helpdesk_phone", locLevel)
	require.NoError(t, err)
	assert.Equal(t, "303.555.0400", eff.Value)
	assert.Equal(t, domain.LevelLocation, eff.Level)

	// The sibling location still inherits the clinic value.
	sibling := domain.LocationLevel(program.ID, clinic.ID, locations[1].ID)
	eff, err = resolver.ResolveOne(ctx, "helpdesk_phone", sibling)
	require.NoError(t, err)
	assert.Equal(t, "303.555.0300", eff.Value)
	assert.Equal(t, domain.LevelClinic, eff.Level)
}

func TestResolveOneUnknownKey(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, _, _ := env.seedProgram(t)
	resolver := env.newResolver(t)

	eff, err := resolver.ResolveOne(ctx, "no_such_key", domain.ProgramLevel(program.ID))
	require.NoError(t, err)
	assert.False(t, eff.Found)
	assert.Empty(t, eff.Value)
}

func TestResolveAllMatchesResolveOne(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, locations := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	env.seedDefinition(t, "sms_enabled", "false")
	env.seedDefinition(t, "welcome_message", "")

	mutator := env.newMutator(t)
	resolver := env.newResolver(t)

	locLevel := domain.LocationLevel(program.ID, clinic.ID, locations[0].ID)

	writes := []SetValueParams{
		{Key: "helpdesk_phone", Value: "800.555.0200", Level: domain.ProgramLevel(program.ID), ChangedBy: "tester"},
		{Key: "sms_enabled", Value: "true", Level: domain.ClinicLevel(program.ID, clinic.ID), ChangedBy: "tester"},
		{Key: "helpdesk_phone", Value: "303.555.0400", Level: locLevel, ChangedBy: "tester"},
	}
	for _, params := range writes {
		_, err := mutator.SetValue(ctx, params)
		require.NoError(t, err)
	}

	all, err := resolver.ResolveAll(ctx, locLevel)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for key, got := range all {
		one, err := resolver.ResolveOne(ctx, key, locLevel)
		require.NoError(t, err)
		assert.Equal(t, one, got, "batch and single resolution disagree for %s", key)
	}

	assert.Equal(t, "303.555.0400", all["helpdesk_phone"].Value)
	assert.Equal(t, "true", all["sms_enabled"].Value)
	assert.False(t, all["welcome_message"].Found)
}

func TestResolveAllFreshProgram(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, locations := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	env.seedDefinition(t, "portal_enabled", "false")
	require.NoError(t, env.definitions.Upsert(ctx, &domain.ConfigDefinition{
		Key:         "welcome_message",
		Category:    "support",
		DisplayName: "welcome_message",
		DataType:    domain.DataTypeString,
		AppliesTo:   domain.AppliesToAll,
	}))
	resolver := env.newResolver(t)

	// A program with no stored rows mirrors the catalog exactly at every
	// tier: defaulted keys resolve at level default, the rest are null.
	levels := []domain.Level{
		domain.ProgramLevel(program.ID),
		domain.ClinicLevel(program.ID, clinic.ID),
		domain.LocationLevel(program.ID, clinic.ID, locations[0].ID),
	}
	for _, level := range levels {
		values, err := resolver.ResolveAll(ctx, level)
		require.NoError(t, err)
		require.Len(t, values, 3)

		for key, want := range map[string]string{
			"helpdesk_phone": "800.555.0100",
			"portal_enabled": "false",
		} {
			got := values[key]
			assert.True(t, got.Found, key)
			assert.Equal(t, want, got.Value, key)
			assert.Equal(t, domain.LevelDefault, got.Level, key)
			assert.False(t, got.IsOverride, key)
		}

		missing := values["welcome_message"]
		assert.False(t, missing.Found)
		assert.Empty(t, missing.Value)
		assert.Empty(t, string(missing.Level))
	}
}

func TestResolveAllIgnoresSiblingRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, locations := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	mutator := env.newMutator(t)

	// A row at a sibling location must not leak into this location's view.
	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "303.555.0900",
		Level:     domain.LocationLevel(program.ID, clinic.ID, locations[1].ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	resolver := env.newResolver(t)
	all, err := resolver.ResolveAll(ctx, domain.LocationLevel(program.ID, clinic.ID, locations[0].ID))
	require.NoError(t, err)
	assert.Equal(t, "800.555.0100", all["helpdesk_phone"].Value)
	assert.Equal(t, domain.LevelDefault, all["helpdesk_phone"].Level)
}

func TestResolveAllUnregisteredKeyStillResolves(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, _, _ := env.seedProgram(t)
	mutator := env.newMutator(t)

	// Written despite having no catalog entry; reads tolerate the drift too.
	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "legacy_key",
		Value:     "kept",
		Level:     domain.ProgramLevel(program.ID),
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	resolver := env.newResolver(t)
	all, err := resolver.ResolveAll(ctx, domain.ProgramLevel(program.ID))
	require.NoError(t, err)
	assert.Equal(t, "kept", all["legacy_key"].Value)
}

func TestOverridesFiltersFlaggedRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, clinic, _ := env.seedProgram(t)
	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	mutator := env.newMutator(t)

	clinicLevel := domain.ClinicLevel(program.ID, clinic.ID)

	// Matches what the clinic inherits: stored but not an override.
	_, err := mutator.SetValue(ctx, SetValueParams{
		Key:       "helpdesk_phone",
		Value:     "800.555.0100",
		Level:     clinicLevel,
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	// Diverges: an override.
	_, err = mutator.SetValue(ctx, SetValueParams{
		Key:       "sms_enabled",
		Value:     "true",
		Level:     clinicLevel,
		ChangedBy: "tester",
	})
	require.NoError(t, err)

	resolver := env.newResolver(t)
	overrides, err := resolver.Overrides(ctx, clinicLevel)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "sms_enabled", overrides[0].Key)
}
