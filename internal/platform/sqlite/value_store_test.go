package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func seedHierarchy(t *testing.T, db *sql.DB) (*domain.Program, *domain.Clinic, *domain.Location) {
	t.Helper()
	ctx := context.Background()
	hierarchy := NewSQLiteHierarchyStore(db, nil)

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, hierarchy.CreateProgram(ctx, program))

	clinic, err := domain.NewClinic(program.ID, "Denver Clinic", "DEN")
	require.NoError(t, err)
	require.NoError(t, hierarchy.CreateClinic(ctx, clinic))

	location, err := domain.NewLocation(clinic.ID, "Denver North", "", "")
	require.NoError(t, err)
	require.NoError(t, hierarchy.CreateLocation(ctx, location))

	return program, clinic, location
}

func TestValueStoreUniquenessPerLevel(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	program, clinic, _ := seedHierarchy(t, db)
	values := NewSQLiteValueStore(db, nil)

	row := &domain.ConfigValue{
		Key:    "helpdesk_phone",
		Level:  domain.ProgramLevel(program.ID),
		Value:  "800.555.0100",
		Source: domain.SourceManual,
	}
	require.NoError(t, values.Insert(ctx, row))
	assert.NotZero(t, row.ID)
	assert.Equal(t, 1, row.Version)

	// A second row at the same (key, level) tuple violates the invariant.
	dup := &domain.ConfigValue{
		Key:    "helpdesk_phone",
		Level:  domain.ProgramLevel(program.ID),
		Value:  "800.555.0200",
		Source: domain.SourceManual,
	}
	assert.ErrorIs(t, values.Insert(ctx, dup), store.ErrValueExists)

	// The same key at a different tier is a distinct tuple.
	clinicRow := &domain.ConfigValue{
		Key:    "helpdesk_phone",
		Level:  domain.ClinicLevel(program.ID, clinic.ID),
		Value:  "303.555.0300",
		Source: domain.SourceManual,
	}
	assert.NoError(t, values.Insert(ctx, clinicRow))
}

func TestValueStoreGetAtLevelIsExact(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	program, clinic, location := seedHierarchy(t, db)
	values := NewSQLiteValueStore(db, nil)

	require.NoError(t, values.Insert(ctx, &domain.ConfigValue{
		Key:    "helpdesk_phone",
		Level:  domain.ProgramLevel(program.ID),
		Value:  "800.555.0100",
		Source: domain.SourceManual,
	}))

	// GetAtLevel never walks up: a clinic lookup misses the program row.
	_, err := values.GetAtLevel(ctx, "helpdesk_phone", domain.ClinicLevel(program.ID, clinic.ID))
	assert.ErrorIs(t, err, store.ErrValueNotFound)
	_, err = values.GetAtLevel(ctx, "helpdesk_phone",
		domain.LocationLevel(program.ID, clinic.ID, location.ID))
	assert.ErrorIs(t, err, store.ErrValueNotFound)

	got, err := values.GetAtLevel(ctx, "helpdesk_phone", domain.ProgramLevel(program.ID))
	require.NoError(t, err)
	assert.Equal(t, "800.555.0100", got.Value)
	assert.Equal(t, domain.LevelProgram, got.Level.Kind())
}

func TestValueStoreUpdateBumpsVersion(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	program, _, _ := seedHierarchy(t, db)
	values := NewSQLiteValueStore(db, nil)

	row := &domain.ConfigValue{
		Key:    "welcome_message",
		Level:  domain.ProgramLevel(program.ID),
		Value:  "Hello",
		Source: domain.SourceManual,
	}
	require.NoError(t, values.Insert(ctx, row))

	row.Value = "Howdy"
	require.NoError(t, values.Update(ctx, row))
	assert.Equal(t, 2, row.Version)

	got, err := values.GetAtLevel(ctx, "welcome_message", domain.ProgramLevel(program.ID))
	require.NoError(t, err)
	assert.Equal(t, "Howdy", got.Value)
	assert.Equal(t, 2, got.Version)

	// Updating a missing row reports not found.
	ghost := &domain.ConfigValue{
		Key:    "no_such_key",
		Level:  domain.ProgramLevel(program.ID),
		Value:  "x",
		Source: domain.SourceManual,
	}
	assert.ErrorIs(t, values.Update(ctx, ghost), store.ErrValueNotFound)
}

func TestValueStoreInsertRejectsUnknownProgram(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	values := NewSQLiteValueStore(db, nil)

	err := values.Insert(context.Background(), &domain.ConfigValue{
		Key:    "helpdesk_phone",
		Level:  domain.ProgramLevel("NOPE-0000"),
		Value:  "800.555.0100",
		Source: domain.SourceManual,
	})
	assert.ErrorIs(t, err, store.ErrProgramNotFound)
}

func TestValueStoreListForResolution(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	program, clinic, location := seedHierarchy(t, db)
	hierarchy := NewSQLiteHierarchyStore(db, nil)
	values := NewSQLiteValueStore(db, nil)

	sibling, err := domain.NewLocation(clinic.ID, "Denver South", "", "")
	require.NoError(t, err)
	require.NoError(t, hierarchy.CreateLocation(ctx, sibling))

	rows := []*domain.ConfigValue{
		{Key: "a", Level: domain.ProgramLevel(program.ID), Value: "1", Source: domain.SourceManual},
		{Key: "a", Level: domain.ClinicLevel(program.ID, clinic.ID), Value: "2", Source: domain.SourceManual},
		{Key: "b", Level: domain.LocationLevel(program.ID, clinic.ID, location.ID), Value: "3", Source: domain.SourceManual},
		{Key: "c", Level: domain.LocationLevel(program.ID, clinic.ID, sibling.ID), Value: "4", Source: domain.SourceManual},
	}
	for _, row := range rows {
		require.NoError(t, values.Insert(ctx, row))
	}

	// The location's view includes its own row and every ancestor row,
	// but not the sibling location's.
	got, err := values.ListForResolution(ctx, domain.LocationLevel(program.ID, clinic.ID, location.ID))
	require.NoError(t, err)
	keys := make(map[string]bool, len(got))
	for _, row := range got {
		keys[row.Key+row.Value] = true
	}
	assert.Len(t, got, 3)
	assert.True(t, keys["a1"] && keys["a2"] && keys["b3"])
	assert.False(t, keys["c4"])
}

func TestValueStoreDeleteByProgram(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	program, clinic, _ := seedHierarchy(t, db)
	values := NewSQLiteValueStore(db, nil)

	require.NoError(t, values.Insert(ctx, &domain.ConfigValue{
		Key: "a", Level: domain.ProgramLevel(program.ID), Value: "1", Source: domain.SourceManual,
	}))
	require.NoError(t, values.Insert(ctx, &domain.ConfigValue{
		Key: "a", Level: domain.ClinicLevel(program.ID, clinic.ID), Value: "2", Source: domain.SourceManual,
	}))

	n, err := values.DeleteByProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := values.ListByProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
