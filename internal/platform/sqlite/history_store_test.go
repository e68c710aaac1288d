package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

func appendEntry(t *testing.T, history store.HistoryStore, key string, level domain.Level, newValue string, at time.Time) *domain.ConfigHistory {
	t.Helper()
	entry := &domain.ConfigHistory{
		Key:       key,
		Level:     level,
		NewValue:  newValue,
		ChangedBy: "tester",
		ChangedAt: at,
	}
	require.NoError(t, history.Append(context.Background(), entry))
	return entry
}

func TestHistoryStoreListForValue(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	history := NewSQLiteHistoryStore(db, nil)
	program, clinic, _ := seedHierarchy(t, db)

	programLevel := domain.ProgramLevel(program.ID)
	clinicLevel := domain.ClinicLevel(program.ID, clinic.ID)

	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	appendEntry(t, history, "contact_phone", programLevel, "800.555.0100", base)
	appendEntry(t, history, "contact_phone", programLevel, "800.555.0200", base.Add(time.Hour))
	appendEntry(t, history, "contact_phone", clinicLevel, "303.555.0300", base)
	appendEntry(t, history, "portal_enabled", programLevel, "true", base)

	entries, err := history.ListForValue(ctx, "contact_phone", programLevel)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "800.555.0200", entries[0].NewValue)
	assert.Equal(t, "800.555.0100", entries[1].NewValue)

	// The clinic row is a different level tuple, not a child of it.
	entries, err = history.ListForValue(ctx, "contact_phone", clinicLevel)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, clinic.ID, entries[0].Level.ClinicID)
}

func TestHistoryStoreListForProgramRange(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	history := NewSQLiteHistoryStore(db, nil)
	program, _, _ := seedHierarchy(t, db)

	level := domain.ProgramLevel(program.ID)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		appendEntry(t, history, "contact_phone", level, fmt.Sprintf("800.555.010%d", i), base.AddDate(0, 0, i))
	}

	all, err := history.ListForProgram(ctx, program.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].ChangedAt.After(all[3].ChangedAt))

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, err := history.ListForProgram(ctx, program.ID, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	for _, entry := range ranged {
		assert.False(t, entry.ChangedAt.Before(from))
		assert.False(t, entry.ChangedAt.After(to))
	}

	fromOnly, err := history.ListForProgram(ctx, program.ID, &from, nil)
	require.NoError(t, err)
	assert.Len(t, fromOnly, 3)
}

func TestHistoryStoreAppendPreservesOldValue(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	history := NewSQLiteHistoryStore(db, nil)
	program, _, _ := seedHierarchy(t, db)

	level := domain.ProgramLevel(program.ID)
	old := "800.555.0100"
	entry := &domain.ConfigHistory{
		Key:            "contact_phone",
		Level:          level,
		OldValue:       &old,
		NewValue:       "800.555.0200",
		ChangedBy:      "admin",
		ChangeReason:   "phone tree rollout",
		SourceDocument: "rollout.yaml",
	}
	require.NoError(t, history.Append(ctx, entry))
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.ChangedAt.IsZero())

	entries, err := history.ListForValue(ctx, "contact_phone", level)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].OldValue)
	assert.Equal(t, old, *entries[0].OldValue)
	assert.Equal(t, "phone tree rollout", entries[0].ChangeReason)
	assert.Equal(t, "rollout.yaml", entries[0].SourceDocument)

	invalid := &domain.ConfigHistory{Level: level, NewValue: "x", ChangedBy: "admin"}
	assert.ErrorIs(t, history.Append(ctx, invalid), store.ErrInvalidEntity)
}
