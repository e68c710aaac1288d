package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

func newImporter(t *testing.T, env *testEnv) *Importer {
	t.Helper()
	imp, err := NewImporter(env.db, env.hierarchy, env.definitions, env.values, env.history, nil, nil)
	require.NoError(t, err)
	return imp
}

func TestImportParsedDocument(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, env.hierarchy.CreateProgram(ctx, program))

	env.seedDefinition(t, "helpdesk_phone", "800.555.0100")
	env.seedDefinition(t, "hours_open", "")

	doc := ParsedDocument{
		ClinicName:     "PCI Surgery",
		ScopeLocations: []string{"PCI Breast Surgery West", "PCI Breast Surgery East"},
		MappedConfigs: []MappedConfig{
			// Plain key: one value for every location in scope.
			{Key: "helpdesk_phone", Value: "303.555.0300"},
			// Targeted key: one location only.
			{Key: "hours_open@PCI Breast Surgery West", Value: "8:00 AM"},
			// Skipped variants.
			{Key: "unmapped_note_7", Value: "whatever"},
			{Key: "helpdesk_phone", Value: "same as default"},
			{Key: "not_registered", Value: "x"},
		},
	}

	importer := newImporter(t, env)
	result, err := importer.ImportParsedDocument(ctx, doc, program.ID, "pci_spec_v1.xlsx")
	require.NoError(t, err)

	assert.Equal(t, 1, result.ClinicsCreated)
	assert.Equal(t, 2, result.LocationsCreated)
	assert.Equal(t, 3, result.ConfigsWritten)
	assert.Equal(t, 3, result.ConfigsSkipped)
	assert.Equal(t, 3, result.HistoryAppended)

	clinic, err := env.hierarchy.FindClinicByName(ctx, program.ID, "PCI Surgery")
	require.NoError(t, err)
	locations, err := env.hierarchy.ListLocations(ctx, clinic.ID)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	// Every location got the shared phone value, at location level.
	for _, loc := range locations {
		row, err := env.values.GetAtLevel(ctx, "helpdesk_phone",
			domain.LocationLevel(program.ID, clinic.ID, loc.ID))
		require.NoError(t, err)
		assert.Equal(t, "303.555.0300", row.Value)
		assert.Equal(t, domain.SourceImport, row.Source)
		assert.Equal(t, "pci_spec_v1.xlsx", row.SourceDocument)
		assert.True(t, row.IsOverride)
	}

	// The targeted key landed only on the west location.
	var west, east *domain.Location
	for _, loc := range locations {
		if loc.Name == "PCI Breast Surgery West" {
			west = loc
		} else {
			east = loc
		}
	}
	row, err := env.values.GetAtLevel(ctx, "hours_open",
		domain.LocationLevel(program.ID, clinic.ID, west.ID))
	require.NoError(t, err)
	assert.Equal(t, "8:00 AM", row.Value)

	_, err = env.values.GetAtLevel(ctx, "hours_open",
		domain.LocationLevel(program.ID, clinic.ID, east.ID))
	assert.Error(t, err)
}

func TestImportByLocationRouting(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, env.hierarchy.CreateProgram(ctx, program))
	env.seedDefinition(t, "hours_open", "")

	doc := ParsedDocument{
		ClinicName:     "PCI Surgery",
		ScopeLocations: []string{"West Office", "East Office"},
		MappedConfigs: []MappedConfig{
			{
				Key: "hours_open_by_location",
				ByLocation: map[string]string{
					"West Office": "8:00 AM",
					"East Office": "9:00 AM",
					"No Such":     "10:00 AM",
				},
			},
		},
	}

	importer := newImporter(t, env)
	result, err := importer.ImportParsedDocument(ctx, doc, program.ID, "doc.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ConfigsWritten)

	clinic, err := env.hierarchy.FindClinicByName(ctx, program.ID, "PCI Surgery")
	require.NoError(t, err)
	locations, err := env.hierarchy.ListLocations(ctx, clinic.ID)
	require.NoError(t, err)

	wantValues := map[string]string{"West Office": "8:00 AM", "East Office": "9:00 AM"}
	for _, loc := range locations {
		row, err := env.values.GetAtLevel(ctx, "hours_open",
			domain.LocationLevel(program.ID, clinic.ID, loc.ID))
		require.NoError(t, err)
		assert.Equal(t, wantValues[loc.Name], row.Value)
	}
}

func TestImportReimportIsIdempotent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, env.hierarchy.CreateProgram(ctx, program))
	env.seedDefinition(t, "helpdesk_phone", "")

	doc := ParsedDocument{
		ClinicName:     "PCI Surgery",
		ScopeLocations: []string{"West Office"},
		MappedConfigs:  []MappedConfig{{Key: "helpdesk_phone", Value: "303.555.0300"}},
	}

	importer := newImporter(t, env)
	first, err := importer.ImportParsedDocument(ctx, doc, program.ID, "doc.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, first.HistoryAppended)

	// Re-running the same document updates in place and, because nothing
	// changed, appends no further history.
	second, err := importer.ImportParsedDocument(ctx, doc, program.ID, "doc.xlsx")
	require.NoError(t, err)
	assert.Zero(t, second.ClinicsCreated)
	assert.Zero(t, second.LocationsCreated)
	assert.Equal(t, 1, second.ConfigsWritten)
	assert.Zero(t, second.HistoryAppended)

	entries, err := env.history.ListForProgram(ctx, program.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportRequiresScopeLocations(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := domain.NewProgram("Path4Me", "P4M", domain.ProgramTypeClinicBased)
	require.NoError(t, err)
	require.NoError(t, env.hierarchy.CreateProgram(ctx, program))

	importer := newImporter(t, env)
	_, err = importer.ImportParsedDocument(ctx, ParsedDocument{ClinicName: "X"}, program.ID, "doc.xlsx")
	assert.ErrorIs(t, err, ErrNoScopeLocations)
}
