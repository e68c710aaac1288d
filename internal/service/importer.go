package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// MappedConfig is one key/value candidate extracted by the external
// document parser. The key may be plain, carry an "@<location>" suffix,
// or carry a "_by_location" suffix with ByLocation populated instead of
// Value.
type MappedConfig struct {
	Key        string            `json:"config_key"`
	Value      string            `json:"value,omitempty"`
	ByLocation map[string]string `json:"by_location,omitempty"`
	Rationale  string            `json:"rationale,omitempty"`
}

// ParsedDocument is the contract with the external document parser: the
// clinic container name, the service locations in scope, and the mapped
// configuration candidates.
type ParsedDocument struct {
	ClinicName     string         `json:"clinic_name"`
	ScopeLocations []string       `json:"scope_locations"`
	MappedConfigs  []MappedConfig `json:"mapped_configs"`
}

// ImportResult reports what an import created or wrote.
type ImportResult struct {
	ClinicsCreated   int `json:"clinics_created"`
	LocationsCreated int `json:"locations_created"`
	ConfigsWritten   int `json:"configs_written"`
	ConfigsSkipped   int `json:"configs_skipped"`
	HistoryAppended  int `json:"history_appended"`
}

// Importer routes parsed clinic documents into the store. In this domain
// a clinic is a geographic grouping, not an addressable service point, so
// every imported value lands at location level; clinic-level rows are
// never produced by this path.
type Importer struct {
	db          *sql.DB
	hierarchy   store.HierarchyStore
	definitions store.DefinitionStore
	values      store.ValueStore
	history     store.HistoryStore
	matcher     LocationMatcher
	logger      *slog.Logger
}

// NewImporter creates a new Importer.
// It returns an error if any of the required dependencies are nil.
func NewImporter(
	db *sql.DB,
	hierarchy store.HierarchyStore,
	definitions store.DefinitionStore,
	values store.ValueStore,
	history store.HistoryStore,
	matcher LocationMatcher,
	logger *slog.Logger,
) (*Importer, error) {
	if db == nil {
		return nil, NewConfigServiceError("new_importer", "db cannot be nil", nil)
	}
	if hierarchy == nil {
		return nil, NewConfigServiceError("new_importer", "hierarchy store cannot be nil", nil)
	}
	if definitions == nil {
		return nil, NewConfigServiceError("new_importer", "definitions store cannot be nil", nil)
	}
	if values == nil {
		return nil, NewConfigServiceError("new_importer", "values store cannot be nil", nil)
	}
	if history == nil {
		return nil, NewConfigServiceError("new_importer", "history store cannot be nil", nil)
	}
	if matcher == nil {
		matcher = FuzzyLocationMatcher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:          db,
		hierarchy:   hierarchy,
		definitions: definitions,
		values:      values,
		history:     history,
		matcher:     matcher,
		logger:      logger.With(slog.String("component", "importer")),
	}, nil
}

// routedConfig is one location-level write derived from a MappedConfig.
type routedConfig struct {
	key       string
	value     string
	location  *domain.Location
	rationale string
}

// ImportParsedDocument ingests one parsed document under a program. It
// creates or reuses the clinic container and the scope locations, routes
// every mapped config to one or more location-level rows, and commits the
// value writes with their history in a single transaction. Re-running the
// same document is idempotent: existing rows are updated in place, and
// updates that change nothing produce no history.
func (i *Importer) ImportParsedDocument(
	ctx context.Context,
	doc ParsedDocument,
	programID, sourceDocument string,
) (*ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, i.logger)

	if _, err := i.hierarchy.GetProgram(ctx, programID); err != nil {
		return nil, err
	}
	if len(doc.ScopeLocations) == 0 {
		return nil, ErrNoScopeLocations
	}

	result := &ImportResult{}

	clinic, err := i.ensureClinic(ctx, programID, doc.ClinicName, result)
	if err != nil {
		return nil, err
	}
	locations, err := i.ensureLocations(ctx, clinic.ID, doc.ScopeLocations, result)
	if err != nil {
		return nil, err
	}

	defs, err := i.definitions.List(ctx)
	if err != nil {
		return nil, NewConfigServiceError("import", "failed to list definitions", err)
	}
	validKeys := make(map[string]bool, len(defs))
	for _, d := range defs {
		validKeys[d.Key] = true
	}

	routed := i.route(doc.MappedConfigs, locations, validKeys, result, log)

	err = store.RunInTransaction(ctx, i.db, func(ctx context.Context, tx *sql.Tx) error {
		txValues := i.values.WithTx(tx)
		txHistory := i.history.WithTx(tx)

		for _, cfg := range routed {
			level := domain.LocationLevel(programID, clinic.ID, cfg.location.ID)

			var oldValue *string
			changed := true
			existing, err := txValues.GetAtLevel(ctx, cfg.key, level)
			switch {
			case err == nil:
				old := existing.Value
				oldValue = &old
				changed = old != cfg.value
				existing.Value = cfg.value
				existing.Source = domain.SourceImport
				existing.SourceDocument = sourceDocument
				existing.Rationale = cfg.rationale
				existing.CreatedBy = "import"
				if err := txValues.Update(ctx, existing); err != nil {
					return NewConfigServiceError("import", "failed to update value row", err)
				}
			case errors.Is(err, store.ErrValueNotFound):
				fresh := &domain.ConfigValue{
					Key:            cfg.key,
					Level:          level,
					Value:          cfg.value,
					IsOverride:     true,
					Source:         domain.SourceImport,
					SourceDocument: sourceDocument,
					Rationale:      cfg.rationale,
					CreatedBy:      "import",
				}
				if err := txValues.Insert(ctx, fresh); err != nil {
					return NewConfigServiceError("import", "failed to insert value row", err)
				}
			default:
				return NewConfigServiceError("import", "failed to look up existing row", err)
			}
			result.ConfigsWritten++

			// Unlike SetValue, re-importing an unchanged value leaves no
			// audit row; the document said nothing new.
			if !changed {
				continue
			}
			entry := &domain.ConfigHistory{
				Key:            cfg.key,
				Level:          level,
				OldValue:       oldValue,
				NewValue:       cfg.value,
				ChangedBy:      "import",
				ChangeReason:   cfg.rationale,
				SourceDocument: sourceDocument,
			}
			if err := txHistory.Append(ctx, entry); err != nil {
				return NewConfigServiceError("import", "failed to append history", err)
			}
			result.HistoryAppended++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("document imported",
		slog.String("program_id", programID),
		slog.String("source_document", sourceDocument),
		slog.Int("configs_written", result.ConfigsWritten),
		slog.Int("configs_skipped", result.ConfigsSkipped),
		slog.Int("history_appended", result.HistoryAppended))
	return result, nil
}

// route expands every mapped config into location-level writes. Unmapped
// keys, empty values, "same as default" markers, unknown base keys, and
// unmatched location names are skipped and counted.
func (i *Importer) route(
	configs []MappedConfig,
	locations []*domain.Location,
	validKeys map[string]bool,
	result *ImportResult,
	log *slog.Logger,
) []routedConfig {
	routed := []routedConfig{}

	for _, cfg := range configs {
		if cfg.Key == "" || strings.HasPrefix(cfg.Key, "unmapped_") {
			result.ConfigsSkipped++
			continue
		}

		switch {
		case strings.Contains(cfg.Key, "@"):
			// "helpdesk_phone@PCI BREAST SURGERY WEST" targets one location.
			baseKey, locName, _ := strings.Cut(cfg.Key, "@")
			if skipValue(cfg.Value) || !validKeys[baseKey] {
				result.ConfigsSkipped++
				continue
			}
			loc := i.matcher.Match(locName, locations)
			if loc == nil {
				log.Warn("no location matched for targeted config",
					slog.String("config_key", baseKey),
					slog.String("location_name", locName))
				result.ConfigsSkipped++
				continue
			}
			routed = append(routed, routedConfig{baseKey, cfg.Value, loc, cfg.Rationale})

		case strings.Contains(cfg.Key, "_by_location"):
			baseKey := strings.ReplaceAll(cfg.Key, "_by_location", "")
			if !validKeys[baseKey] || len(cfg.ByLocation) == 0 {
				result.ConfigsSkipped++
				continue
			}
			for locName, locValue := range cfg.ByLocation {
				if skipValue(locValue) {
					continue
				}
				loc := i.matcher.Match(locName, locations)
				if loc == nil {
					log.Warn("no location matched in by-location config",
						slog.String("config_key", baseKey),
						slog.String("location_name", locName))
					continue
				}
				routed = append(routed, routedConfig{baseKey, locValue, loc, cfg.Rationale})
			}

		default:
			// Plain key: shared value, distributed to every location in scope.
			if skipValue(cfg.Value) || !validKeys[cfg.Key] {
				result.ConfigsSkipped++
				continue
			}
			for _, loc := range locations {
				routed = append(routed, routedConfig{cfg.Key, cfg.Value, loc, cfg.Rationale})
			}
		}
	}
	return routed
}

func (i *Importer) ensureClinic(ctx context.Context, programID, name string, result *ImportResult) (*domain.Clinic, error) {
	if name == "" {
		name = "Unknown Clinic"
	}
	clinic, err := i.hierarchy.FindClinicByName(ctx, programID, name)
	if err == nil {
		return clinic, nil
	}
	if !errors.Is(err, store.ErrClinicNotFound) {
		return nil, err
	}

	clinic, err = domain.NewClinic(programID, name, "")
	if err != nil {
		return nil, err
	}
	if err := i.hierarchy.CreateClinic(ctx, clinic); err != nil {
		return nil, err
	}
	result.ClinicsCreated++
	return clinic, nil
}

func (i *Importer) ensureLocations(ctx context.Context, clinicID string, names []string, result *ImportResult) ([]*domain.Location, error) {
	existing, err := i.hierarchy.ListLocations(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*domain.Location, len(existing))
	for _, loc := range existing {
		byName[strings.ToLower(loc.Name)] = loc
	}

	locations := make([]*domain.Location, 0, len(names))
	for _, name := range names {
		if loc, ok := byName[strings.ToLower(name)]; ok {
			locations = append(locations, loc)
			continue
		}
		loc, err := domain.NewLocation(clinicID, name, "", "")
		if err != nil {
			return nil, err
		}
		if err := i.hierarchy.CreateLocation(ctx, loc); err != nil {
			return nil, err
		}
		byName[strings.ToLower(name)] = loc
		locations = append(locations, loc)
		result.LocationsCreated++
	}
	return locations, nil
}

// skipValue reports document values that carry no new information.
func skipValue(value string) bool {
	return value == "" || strings.Contains(strings.ToLower(value), "same as default")
}
