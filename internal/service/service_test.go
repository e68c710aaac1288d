package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/sqlite"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// testEnv wires the service layer against an in-memory SQLite database.
// Every test gets a fresh database; no external services are needed.
type testEnv struct {
	db          *sql.DB
	hierarchy   store.HierarchyStore
	definitions store.DefinitionStore
	values      store.ValueStore
	history     store.HistoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.EnsureSchema(context.Background(), db))

	return &testEnv{
		db:          db,
		hierarchy:   sqlite.NewSQLiteHierarchyStore(db, nil),
		definitions: sqlite.NewSQLiteDefinitionStore(db, nil),
		values:      sqlite.NewSQLiteValueStore(db, nil),
		history:     sqlite.NewSQLiteHistoryStore(db, nil),
	}
}

// seedProgram creates a program with one clinic and two locations,
// mirroring the smallest hierarchy the resolution walk exercises.
func (e *testEnv) seedProgram(t *testing.T) (*domain.Program, *domain.Clinic, []*domain.Location) {
	t.Helper()
	ctx := context.Background()

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, e.hierarchy.CreateProgram(ctx, program))

	clinic, err := domain.NewClinic(program.ID, "Denver Clinic", "DEN")
	require.NoError(t, err)
	require.NoError(t, e.hierarchy.CreateClinic(ctx, clinic))

	locations := make([]*domain.Location, 0, 2)
	for _, name := range []string{"Denver North", "Denver South"} {
		loc, err := domain.NewLocation(clinic.ID, name, "", "")
		require.NoError(t, err)
		require.NoError(t, e.hierarchy.CreateLocation(ctx, loc))
		locations = append(locations, loc)
	}
	return program, clinic, locations
}

func (e *testEnv) seedDefinition(t *testing.T, key, defaultValue string) {
	t.Helper()
	def := &domain.ConfigDefinition{
		Key:          key,
		Category:     "support",
		DisplayName:  key,
		DataType:     domain.DataTypeString,
		DefaultValue: defaultValue,
		AppliesTo:    domain.AppliesToAll,
	}
	require.NoError(t, e.definitions.Upsert(context.Background(), def))
}

func (e *testEnv) newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(e.definitions, e.values, nil)
	require.NoError(t, err)
	return r
}

func (e *testEnv) newMutator(t *testing.T) *Mutator {
	t.Helper()
	m, err := NewMutator(e.db, e.hierarchy, e.definitions, e.values, e.history, nil)
	require.NoError(t, err)
	return m
}
