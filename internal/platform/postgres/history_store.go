package postgres

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

// PostgresHistoryStore implements the store.HistoryStore interface using
// a PostgreSQL database as the storage backend. Append-only: no method on
// this type ever updates or deletes a history row.
type PostgresHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryStore creates a new PostgreSQL implementation of the
// HistoryStore interface. If logger is nil, a default logger is used.
func NewPostgresHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure PostgresHistoryStore implements store.HistoryStore
var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// WithTx implements store.HistoryStore.WithTx
func (s *PostgresHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return &PostgresHistoryStore{db: tx, logger: s.logger}
}

// Append implements store.HistoryStore.Append
func (s *PostgresHistoryStore) Append(ctx context.Context, entry *domain.ConfigHistory) error {
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

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO config_history
			(config_key, program_id, clinic_id, location_id,
			 old_value, new_value, changed_by, change_reason, source_document, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING history_id`,
		entry.Key,
		entry.Level.ProgramID,
		nullable(entry.Level.ClinicID),
		nullable(entry.Level.LocationID),
		oldValue,
		entry.NewValue,
		entry.ChangedBy,
		nullable(entry.ChangeReason),
		nullable(entry.SourceDocument),
		entry.ChangedAt,
	).Scan(&entry.ID)
	if err != nil {
		log.Error("failed to append config history",
			slog.String("error", err.Error()),
			slog.String("config_key", entry.Key))
		return MapError(err)
	}
	return nil
}

const historyCols = `history_id, config_key, program_id, clinic_id, location_id,
	old_value, new_value, changed_by, change_reason, source_document, changed_at`

func scanHistory(row interface{ Scan(...any) error }) (*domain.ConfigHistory, error) {
	var (
		h                                           domain.ConfigHistory
		clinicID, locationID, oldValue, reason, doc sql.NullString
		programID                                   string
	)
	err := row.Scan(&h.ID, &h.Key, &programID, &clinicID, &locationID,
		&oldValue, &h.NewValue, &h.ChangedBy, &reason, &doc, &h.ChangedAt)
	if err != nil {
		return nil, err
	}
	h.Level = levelOf(programID, clinicID, locationID)
	if oldValue.Valid {
		h.OldValue = &oldValue.String
	}
	h.ChangeReason = reason.String
	h.SourceDocument = doc.String
	return &h, nil
}

// ListForValue implements store.HistoryStore.ListForValue
func (s *PostgresHistoryStore) ListForValue(ctx context.Context, key string, level domain.Level) ([]*domain.ConfigHistory, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyCols+`
		FROM config_history
		WHERE config_key = $1
		  AND program_id = $2
		  AND clinic_id IS NOT DISTINCT FROM $3
		  AND location_id IS NOT DISTINCT FROM $4
		ORDER BY changed_at DESC, history_id DESC`,
		key, level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectHistory(rows)
}

// ListForProgram implements store.HistoryStore.ListForProgram
func (s *PostgresHistoryStore) ListForProgram(ctx context.Context, programID string, from, to *time.Time) ([]*domain.ConfigHistory, error) {
	query := `SELECT ` + historyCols + ` FROM config_history WHERE program_id = $1`
	args := []any{programID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND changed_at >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND changed_at <= $%d`, len(args))
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
