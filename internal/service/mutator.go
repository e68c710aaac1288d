package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// SetValueParams carries one configuration write.
type SetValueParams struct {
	Key            string
	Value          string
	Level          domain.Level
	Source         domain.ValueSource
	SourceDocument string
	Rationale      string
	ChangedBy      string

	// SkipNormalization stores the value exactly as given. The default is
	// to canonicalize phone, boolean, and time values by key heuristics.
	SkipNormalization bool
}

// ClearResult reports what a bulk clear removed.
type ClearResult struct {
	ValuesDeleted    int64 `json:"values_deleted"`
	LocationsDeleted int64 `json:"locations_deleted"`
	ClinicsDeleted   int64 `json:"clinics_deleted"`
}

// Mutator validates, normalizes, and writes configuration values. Every
// write computes the override flag against the immediate parent and
// appends one audit record, atomically with the value row.
type Mutator struct {
	db          *sql.DB
	hierarchy   store.HierarchyStore
	definitions store.DefinitionStore
	values      store.ValueStore
	history     store.HistoryStore
	logger      *slog.Logger
}

// NewMutator creates a new Mutator.
// It returns an error if any of the required dependencies are nil.
func NewMutator(
	db *sql.DB,
	hierarchy store.HierarchyStore,
	definitions store.DefinitionStore,
	values store.ValueStore,
	history store.HistoryStore,
	logger *slog.Logger,
) (*Mutator, error) {
	if db == nil {
		return nil, NewConfigServiceError("new_mutator", "db cannot be nil", nil)
	}
	if hierarchy == nil {
		return nil, NewConfigServiceError("new_mutator", "hierarchy store cannot be nil", nil)
	}
	if definitions == nil {
		return nil, NewConfigServiceError("new_mutator", "definitions store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_mutator", "values store cannot be nil", nil)
	}
	if history == nil {
		return nil, NewConfigServiceError("new_mutator", "history store cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		db:          db,
		hierarchy:   hierarchy,
		definitions: definitions,
		values:      values,
		history:     history,
		logger:      logger.With(slog.String("component", "mutator")),
	}, nil
}

// SetValue writes one configuration value at an exact hierarchy level.
// A row already at that level is updated in place with its version bumped;
// otherwise a new row is inserted at version 1. One history record is
// appended per call, even when the new value equals the old one, so the
// audit trail reflects every attempt that reached storage. The value write
// and the history append commit as one transaction.
//
// Unknown keys are stored with a warning rather than rejected, to tolerate
// catalog drift in either direction.
func (m *Mutator) SetValue(ctx context.Context, params SetValueParams) (*domain.ConfigValue, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if err := params.Level.Validate(); err != nil {
		return nil, err
	}
	if err := m.verifyLevelExists(ctx, params.Level); err != nil {
		return nil, err
	}
	if params.Source == "" {
		params.Source = domain.SourceManual
	}

	value := params.Value
	if !params.SkipNormalization {
		value = NormalizeValue(params.Key, value)
	}

	def, err := m.definitions.GetByKey(ctx, params.Key)
	if err != nil {
		if !errors.Is(err, store.ErrDefinitionNotFound) {
			return nil, NewConfigServiceError("set_value", "failed to look up definition", err)
		}
		def = nil
		log.Warn("config key not in definition registry, storing anyway",
			slog.String("config_key", params.Key))
	}

	isOverride, err := m.computeOverride(ctx, params.Key, params.Level, value, def)
	if err != nil {
		return nil, NewConfigServiceError("set_value", "failed to compute override flag", err)
	}

	var result *domain.ConfigValue
	err = store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		txValues := m.values.WithTx(tx)
		txHistory := m.history.WithTx(tx)

		var oldValue *string
		existing, err := txValues.GetAtLevel(ctx, params.Key, params.Level)
		switch {
		case err == nil:
			old := existing.Value
			oldValue = &old
			existing.Value = value
			existing.IsOverride = isOverride
			existing.Source = params.Source
			existing.SourceDocument = params.SourceDocument
			existing.Rationale = params.Rationale
			existing.CreatedBy = params.ChangedBy
			if err := txValues.Update(ctx, existing); err != nil {
				return NewConfigServiceError("set_value", "failed to update value row", err)
			}
			result = existing
		case errors.Is(err, store.ErrValueNotFound):
			fresh := &domain.ConfigValue{
				Key:            params.Key,
				Level:          params.Level,
				Value:          value,
				IsOverride:     isOverride,
				Source:         params.Source,
				SourceDocument: params.SourceDocument,
				Rationale:      params.Rationale,
				CreatedBy:      params.ChangedBy,
			}
			if err := txValues.Insert(ctx, fresh); err != nil {
				return NewConfigServiceError("set_value", "failed to insert value row", err)
			}
			result = fresh
		default:
			return NewConfigServiceError("set_value", "failed to look up existing row", err)
		}

		entry := &domain.ConfigHistory{
			Key:            params.Key,
			Level:          params.Level,
			OldValue:       oldValue,
			NewValue:       value,
			ChangedBy:      params.ChangedBy,
			ChangeReason:   params.Rationale,
			SourceDocument: params.SourceDocument,
		}
		if err := txHistory.Append(ctx, entry); err != nil {
			return NewConfigServiceError("set_value", "failed to append history", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("config value set",
		slog.String("config_key", params.Key),
		slog.String("program_id", params.Level.ProgramID),
		slog.String("level", string(params.Level.Kind())),
		slog.Bool("is_override", result.IsOverride),
		slog.Int("version", result.Version))
	return result, nil
}

// verifyLevelExists confirms the addressed clinic and location exist
// before anything is written. The config_values foreign key only covers
// the program column, so an unknown clinic or location ID would otherwise
// persist an orphan row.
func (m *Mutator) verifyLevelExists(ctx context.Context, level domain.Level) error {
	if level.ClinicID != "" {
		if _, err := m.hierarchy.GetClinic(ctx, level.ClinicID); err != nil {
			return err
		}
	}
	if level.LocationID != "" {
		if _, err := m.hierarchy.GetLocation(ctx, level.LocationID); err != nil {
			return err
		}
	}
	return nil
}

// computeOverride decides whether the incoming value diverges from what
// the level would inherit. Program-level writes compare against the
// catalog default; lower levels compare against what resolution currently
// returns at the immediate parent, before this write lands.
func (m *Mutator) computeOverride(
	ctx context.Context,
	key string,
	level domain.Level,
	value string,
	def *domain.ConfigDefinition,
) (bool, error) {
	if level.Kind() == domain.LevelProgram {
		return def != nil && def.DefaultValue != value, nil
	}

	parent, err := level.Parent()
	if err != nil {
		return false, err
	}
	resolver, err := NewResolver(m.definitions, m.values, m.logger)
	if err != nil {
		return false, err
	}
	inherited, err := resolver.ResolveOne(ctx, key, parent)
	if err != nil {
		return false, err
	}
	return inherited.Value != value, nil
}

// ClearProgramData deletes a program's configuration values and, unless
// keepStructure is set, its locations and clinics. Audit history survives
// every clear. Used to make document re-imports idempotent.
func (m *Mutator) ClearProgramData(ctx context.Context, programID string, keepStructure bool) (*ClearResult, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if _, err := m.hierarchy.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	result := &ClearResult{}
	err := store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		txValues := m.values.WithTx(tx)
		txHierarchy := m.hierarchy.WithTx(tx)

		n, err := txValues.DeleteByProgram(ctx, programID)
		if err != nil {
			return NewConfigServiceError("clear_program", "failed to delete values", err)
		}
		result.ValuesDeleted = n

		if keepStructure {
			return nil
		}

		n, err = txHierarchy.DeleteLocations(ctx, programID)
		if err != nil {
			return NewConfigServiceError("clear_program", "failed to delete locations", err)
		}
		result.LocationsDeleted = n

		n, err = txHierarchy.DeleteClinics(ctx, programID)
		if err != nil {
			return NewConfigServiceError("clear_program", "failed to delete clinics", err)
		}
		result.ClinicsDeleted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("program data cleared",
		slog.String("program_id", programID),
		slog.Int64("values_deleted", result.ValuesDeleted),
		slog.Int64("locations_deleted", result.LocationsDeleted),
		slog.Int64("clinics_deleted", result.ClinicsDeleted))
	return result, nil
}
