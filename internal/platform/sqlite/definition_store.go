package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// SQLiteDefinitionStore implements the store.DefinitionStore interface
// using a SQLite database as the storage backend.
type SQLiteDefinitionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteDefinitionStore creates a new SQLite implementation of the
// DefinitionStore interface. If logger is nil, a default logger is used.
func NewSQLiteDefinitionStore(db store.DBTX, logger *slog.Logger) *SQLiteDefinitionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteDefinitionStore{
		db:     db,
		logger: logger.With(slog.String("component", "definition_store")),
	}
}

// Ensure SQLiteDefinitionStore implements store.DefinitionStore
var _ store.DefinitionStore = (*SQLiteDefinitionStore)(nil)

// WithTx implements store.DefinitionStore.WithTx
func (s *SQLiteDefinitionStore) WithTx(tx *sql.Tx) store.DefinitionStore {
	return &SQLiteDefinitionStore{db: tx, logger: s.logger}
}

// Upsert implements store.DefinitionStore.Upsert
func (s *SQLiteDefinitionStore) Upsert(ctx context.Context, def *domain.ConfigDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	allowed, err := marshalAllowedValues(def.AllowedValues)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO config_definitions
			(config_key, category, display_name, description, data_type, allowed_values,
			 default_value, applies_to, is_required, is_clinic_editable, validation_regex, display_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(config_key) DO UPDATE SET
			category = excluded.category,
			display_name = excluded.display_name,
			description = excluded.description,
			data_type = excluded.data_type,
			allowed_values = excluded.allowed_values,
			default_value = excluded.default_value,
			applies_to = excluded.applies_to,
			is_required = excluded.is_required,
			is_clinic_editable = excluded.is_clinic_editable,
			validation_regex = excluded.validation_regex,
			display_order = excluded.display_order`,
		def.Key,
		def.Category,
		def.DisplayName,
		nullable(def.Description),
		string(def.DataType),
		allowed,
		nullable(def.DefaultValue),
		string(def.AppliesTo),
		def.IsRequired,
		def.IsClinicEditable,
		nullable(def.ValidationRegex),
		def.DisplayOrder,
	)
	return err
}

const definitionCols = `config_key, category, display_name, description, data_type, allowed_values,
	default_value, applies_to, is_required, is_clinic_editable, validation_regex, display_order`

func scanDefinition(row interface{ Scan(...any) error }) (*domain.ConfigDefinition, error) {
	var (
		d                                             domain.ConfigDefinition
		description, allowed, defaultValue, pattern   sql.NullString
		dataType, appliesTo                           string
	)
	err := row.Scan(&d.Key, &d.Category, &d.DisplayName, &description, &dataType, &allowed,
		&defaultValue, &appliesTo, &d.IsRequired, &d.IsClinicEditable, &pattern, &d.DisplayOrder)
	if err != nil {
		return nil, err
	}
	d.Description = description.String
	d.DataType = domain.DataType(dataType)
	d.DefaultValue = defaultValue.String
	d.AppliesTo = domain.AppliesTo(appliesTo)
	d.ValidationRegex = pattern.String
	if allowed.Valid && allowed.String != "" {
		if err := json.Unmarshal([]byte(allowed.String), &d.AllowedValues); err != nil {
			return nil, fmt.Errorf("decode allowed_values for %s: %w", d.Key, err)
		}
	}
	return &d, nil
}

// GetByKey implements store.DefinitionStore.GetByKey
func (s *SQLiteDefinitionStore) GetByKey(ctx context.Context, key string) (*domain.ConfigDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+definitionCols+` FROM config_definitions WHERE config_key = ?`, key)
	d, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDefinitionNotFound
	}
	return d, err
}

// List implements store.DefinitionStore.List
func (s *SQLiteDefinitionStore) List(ctx context.Context) ([]*domain.ConfigDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+definitionCols+` FROM config_definitions ORDER BY category, display_order, config_key`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.logger)

	defs := []*domain.ConfigDefinition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// marshalAllowedValues stores the enumerated values as a JSON array, or
// NULL when the definition does not constrain values.
func marshalAllowedValues(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode allowed_values: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
