package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// SQLiteValueStore implements the store.ValueStore interface using a
// SQLite database as the storage backend. The unique expression index on
// (key, program, clinic, location) enforces the one-row-per-level
// invariant at the storage layer.
type SQLiteValueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteValueStore creates a new SQLite implementation of the
// ValueStore interface. If logger is nil, a default logger is used.
func NewSQLiteValueStore(db store.DBTX, logger *slog.Logger) *SQLiteValueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteValueStore{
		db:     db,
		logger: logger.With(slog.String("component", "value_store")),
	}
}

// Ensure SQLiteValueStore implements store.ValueStore
var _ store.ValueStore = (*SQLiteValueStore)(nil)

// WithTx implements store.ValueStore.WithTx
func (s *SQLiteValueStore) WithTx(tx *sql.Tx) store.ValueStore {
	return &SQLiteValueStore{db: tx, logger: s.logger}
}

const valueCols = `value_id, config_key, program_id, clinic_id, location_id, value, is_override,
	source, source_document, rationale, version, created_by, created_at, updated_at`

func scanValue(row interface{ Scan(...any) error }) (*domain.ConfigValue, error) {
	var (
		v                                         domain.ConfigValue
		clinicID, locationID, sourceDoc, rationale sql.NullString
		programID, source, createdAt, updatedAt    string
	)
	err := row.Scan(&v.ID, &v.Key, &programID, &clinicID, &locationID, &v.Value, &v.IsOverride,
		&source, &sourceDoc, &rationale, &v.Version, &v.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	v.Level = levelOf(programID, clinicID, locationID)
	v.Source = domain.ValueSource(source)
	v.SourceDocument = sourceDoc.String
	v.Rationale = rationale.String
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return &v, nil
}

// GetAtLevel implements store.ValueStore.GetAtLevel.
// The null-safe clinic/location comparison makes the (key, level) tuple
// address exactly one of the three tiers.
func (s *SQLiteValueStore) GetAtLevel(ctx context.Context, key string, level domain.Level) (*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE config_key = ?
		  AND program_id = ?
		  AND clinic_id IS ?
		  AND location_id IS ?`,
		key, level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))

	v, err := scanValue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrValueNotFound
	}
	return v, err
}

// Insert implements store.ValueStore.Insert
func (s *SQLiteValueStore) Insert(ctx context.Context, value *domain.ConfigValue) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := value.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	now := time.Now().UTC()
	if value.CreatedAt.IsZero() {
		value.CreatedAt = now
	}
	value.UpdatedAt = now
	value.Version = 1

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO config_values
			(config_key, program_id, clinic_id, location_id, value, is_override,
			 source, source_document, rationale, version, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		value.Key,
		value.Level.ProgramID,
		nullable(value.Level.ClinicID),
		nullable(value.Level.LocationID),
		value.Value,
		value.IsOverride,
		string(value.Source),
		nullable(value.SourceDocument),
		nullable(value.Rationale),
		value.Version,
		value.CreatedBy,
		formatTime(value.CreatedAt),
		formatTime(value.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrValueExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		log.Error("failed to insert config value",
			slog.String("error", err.Error()),
			slog.String("config_key", value.Key))
		return err
	}

	value.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	log.Debug("config value inserted",
		slog.String("config_key", value.Key),
		slog.String("level", string(value.Level.Kind())))
	return nil
}

// Update implements store.ValueStore.Update.
// Replaces the stored value in place and increments the version counter.
func (s *SQLiteValueStore) Update(ctx context.Context, value *domain.ConfigValue) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := value.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	value.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE config_values
		SET value = ?, is_override = ?, source = ?, source_document = ?,
		    rationale = ?, version = version + 1, created_by = ?, updated_at = ?
		WHERE value_id = ?`,
		value.Value,
		value.IsOverride,
		string(value.Source),
		nullable(value.SourceDocument),
		nullable(value.Rationale),
		value.CreatedBy,
		formatTime(value.UpdatedAt),
		value.ID,
	)
	if err != nil {
		log.Error("failed to update config value",
			slog.String("error", err.Error()),
			slog.Int64("value_id", value.ID))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrValueNotFound
	}

	value.Version++
	log.Debug("config value updated",
		slog.String("config_key", value.Key),
		slog.Int("version", value.Version))
	return nil
}

// ListForResolution implements store.ValueStore.ListForResolution.
// One round trip fetches every row that could contribute to resolution at
// the given level: program, the addressed clinic, and the addressed
// location. Rows for sibling clinics or locations never match.
func (s *SQLiteValueStore) ListForResolution(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = ?
		  AND (clinic_id IS NULL OR clinic_id = ?)
		  AND (location_id IS NULL OR location_id = ?)`,
		level.ProgramID, level.ClinicID, level.LocationID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// ListAtLevel implements store.ValueStore.ListAtLevel
func (s *SQLiteValueStore) ListAtLevel(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = ?
		  AND clinic_id IS ?
		  AND location_id IS ?
		ORDER BY config_key`,
		level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// ListByProgram implements store.ValueStore.ListByProgram
func (s *SQLiteValueStore) ListByProgram(ctx context.Context, programID string) ([]*domain.ConfigValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = ?
		ORDER BY config_key`, programID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// DeleteByProgram implements store.ValueStore.DeleteByProgram
func (s *SQLiteValueStore) DeleteByProgram(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM config_values WHERE program_id = ?`, programID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectValues(rows *sql.Rows) ([]*domain.ConfigValue, error) {
	values := []*domain.ConfigValue{}
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
