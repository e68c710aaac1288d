package postgres

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

// PostgresValueStore implements the store.ValueStore interface using a
// PostgreSQL database as the storage backend. The unique expression index
// on (key, program, clinic, location) enforces the one-row-per-level
// invariant at the storage layer.
type PostgresValueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresValueStore creates a new PostgreSQL implementation of the
// ValueStore interface. If logger is nil, a default logger is used.
func NewPostgresValueStore(db store.DBTX, logger *slog.Logger) *PostgresValueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresValueStore{
		db:     db,
		logger: logger.With(slog.String("component", "value_store")),
	}
}

// Ensure PostgresValueStore implements store.ValueStore
var _ store.ValueStore = (*PostgresValueStore)(nil)

// WithTx implements store.ValueStore.WithTx
func (s *PostgresValueStore) WithTx(tx *sql.Tx) store.ValueStore {
	return &PostgresValueStore{db: tx, logger: s.logger}
}

const valueCols = `value_id, config_key, program_id, clinic_id, location_id, value, is_override,
	source, source_document, rationale, version, created_by, created_at, updated_at`

func scanValue(row interface{ Scan(...any) error }) (*domain.ConfigValue, error) {
	var (
		v                                          domain.ConfigValue
		clinicID, locationID, sourceDoc, rationale sql.NullString
		programID, source                          string
	)
	err := row.Scan(&v.ID, &v.Key, &programID, &clinicID, &locationID, &v.Value, &v.IsOverride,
		&source, &sourceDoc, &rationale, &v.Version, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Level = levelOf(programID, clinicID, locationID)
	v.Source = domain.ValueSource(source)
	v.SourceDocument = sourceDoc.String
	v.Rationale = rationale.String
	return &v, nil
}

// GetAtLevel implements store.ValueStore.GetAtLevel.
// The null-safe clinic/location comparison makes the (key, level) tuple
// address exactly one of the three tiers.
func (s *PostgresValueStore) GetAtLevel(ctx context.Context, key string, level domain.Level) (*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE config_key = $1
		  AND program_id = $2
		  AND clinic_id IS NOT DISTINCT FROM $3
		  AND location_id IS NOT DISTINCT FROM $4`,
		key, level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))

	v, err := scanValue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrValueNotFound
	}
	return v, err
}

// Insert implements store.ValueStore.Insert
func (s *PostgresValueStore) Insert(ctx context.Context, value *domain.ConfigValue) error {
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

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO config_values
			(config_key, program_id, clinic_id, location_id, value, is_override,
			 source, source_document, rationale, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING value_id`,
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
		value.CreatedAt,
		value.UpdatedAt,
	).Scan(&value.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrValueExists
		}
		if IsForeignKeyViolation(err) {
			return store.ErrProgramNotFound
		}
		log.Error("failed to insert config value",
			slog.String("error", err.Error()),
			slog.String("config_key", value.Key))
		return MapError(err)
	}

	log.Debug("config value inserted",
		slog.String("config_key", value.Key),
		slog.String("level", string(value.Level.Kind())))
	return nil
}

// Update implements store.ValueStore.Update.
// Replaces the stored value in place and increments the version counter.
func (s *PostgresValueStore) Update(ctx context.Context, value *domain.ConfigValue) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := value.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	value.UpdatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		UPDATE config_values
		SET value = $1, is_override = $2, source = $3, source_document = $4,
		    rationale = $5, version = version + 1, created_by = $6, updated_at = $7
		WHERE value_id = $8
		RETURNING version`,
		value.Value,
		value.IsOverride,
		string(value.Source),
		nullable(value.SourceDocument),
		nullable(value.Rationale),
		value.CreatedBy,
		value.UpdatedAt,
		value.ID,
	).Scan(&value.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrValueNotFound
		}
		log.Error("failed to update config value",
			slog.String("error", err.Error()),
			slog.Int64("value_id", value.ID))
		return MapError(err)
	}

	log.Debug("config value updated",
		slog.String("config_key", value.Key),
		slog.Int("version", value.Version))
	return nil
}

// ListForResolution implements store.ValueStore.ListForResolution.
// One round trip fetches every row that could contribute to resolution at
// the given level: program, the addressed clinic, and the addressed
// location. Rows for sibling clinics or locations never match.
func (s *PostgresValueStore) ListForResolution(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = $1
		  AND (clinic_id IS NULL OR clinic_id = $2)
		  AND (location_id IS NULL OR location_id = $3)`,
		level.ProgramID, level.ClinicID, level.LocationID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// ListAtLevel implements store.ValueStore.ListAtLevel
func (s *PostgresValueStore) ListAtLevel(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = $1
		  AND clinic_id IS NOT DISTINCT FROM $2
		  AND location_id IS NOT DISTINCT FROM $3
		ORDER BY config_key`,
		level.ProgramID, nullable(level.ClinicID), nullable(level.LocationID))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// ListByProgram implements store.ValueStore.ListByProgram
func (s *PostgresValueStore) ListByProgram(ctx context.Context, programID string) ([]*domain.ConfigValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+valueCols+`
		FROM config_values
		WHERE program_id = $1
		ORDER BY config_key`, programID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	return collectValues(rows)
}

// DeleteByProgram implements store.ValueStore.DeleteByProgram
func (s *PostgresValueStore) DeleteByProgram(ctx context.Context, programID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM config_values WHERE program_id = $1`, programID)
	if err != nil {
		return 0, MapError(err)
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
