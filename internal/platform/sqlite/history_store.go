package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// SQLiteHistoryStore implements the store.HistoryStore interface using a
// SQLite database as the storage backend. Append-only: no method on this
// type ever updates or deletes a history row.
type SQLiteHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteHistoryStore creates a new SQLite implementation of the
// HistoryStore interface. If logger is nil, a default logger is used.
func NewSQLiteHistoryStore(db store.DBTX, logger *slog.Logger) *SQLiteHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure SQLiteHistoryStore implements store.HistoryStore
var _ store.HistoryStore = (*SQLiteHistoryStore)(nil)

// WithTx implements store.HistoryStore.WithTx
func (s *SQLiteHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return &SQLiteHistoryStore{db: tx, logger: s.logger}
}

// Append implements store.HistoryStore.Append
func (s *SQLiteHistoryStore) Append(ctx context.Context, entry *domain.ConfigHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}

	var oldValue sql.NullString
	if entry.OldValue != nil {
		oldValue = sql.NullString{String: *entry.OldValue, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO config_history
			(config_key, program_id, clinic_id, location_id,
			 old_value, new_value, changed_by, change_reason, source_document, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Key,
		entry.Level.ProgramID,
		nullable(entry.Level.ClinicID),
		nullable(entry.Level.LocationID),
		oldValue,
		entry.NewValue,
		entry.ChangedBy,
		nullable(entry.ChangeReason),
		nullable(entry.SourceDocument),
		formatTime(entry.ChangedAt),
	)
	if err != nil {
		log.Error("failed to append config history",
			slog.String("error", err.Error()),
			slog.String("config_key", entry.Key))
		return err
	}

	entry.ID, err = res.LastInsertId()
	return err
}

const historyCols = `history_id, config_key, program_id, clinic_id, location_id,
	old_value, new_value, changed_by, change_reason, source_document, changed_at`

func scanHistory(row interface{ Scan(...any) error }) (*domain.ConfigHistory, error) {
	var (
		h                                           domain.ConfigHistory
		clinicID, locationID, oldValue, reason, doc sql.NullString
		programID, changedAt                        string
	)
	err := row.Scan(&h.ID, &h.Key, &programID, &clinicID, &locationID,
		&oldValue, &h.NewValue, &h.ChangedBy, &reason, &doc, &changedAt)
	if err != nil {
		return nil, err
	}
	h.Level = levelOf(programID, clinicID, locationID)
	if oldValue.Valid {
		h.OldValue = &oldValue.String
	}
	h.ChangeReason = reason.String
	h.SourceDocument = doc.String
	h.ChangedAt = parseTime(changedAt)
	return &h, nil
}

// ListForValue implements store.HistoryStore.ListForValue
func (s *SQLiteHistoryStore) ListForValue(ctx context.Context, key string, level domain.Level) ([]*domain.ConfigHistory, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyCols+`
		FROM config_history
		WHERE config_key = ?
		  AND program_id = ?
		  AND clinic_id IS ?
		  AND location_id IS ?
		ORDER BY changed_at DESC, history_id DESC`,
		key, level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectHistory(rows)
}

// ListForProgram implements store.HistoryStore.ListForProgram
func (s *SQLiteHistoryStore) ListForProgram(ctx context.Context, programID string, from, to *time.Time) ([]*domain.ConfigHistory, error) {
	query := `SELECT ` + historyCols + ` FROM config_history WHERE program_id = ?`
	args := []any{programID}

	if from != nil {
		query += ` AND changed_at >= ?`
		args = append(args, formatTime(*from))
	}
	if to != nil {
		query += ` AND changed_at <= ?`
		args = append(args, formatTime(*to))
	}
	query += ` ORDER BY changed_at DESC, history_id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectHistory(rows)
}

func collectHistory(rows *sql.Rows) ([]*domain.ConfigHistory, error) {
	entries := []*domain.ConfigHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
