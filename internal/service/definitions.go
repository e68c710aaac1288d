package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/platform/logger"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// definitionCatalog is the YAML shape of the declarative key catalog.
type definitionCatalog struct {
	Definitions []domain.ConfigDefinition `yaml:"definitions"`
}

// CatalogLoader loads the declarative definition catalog into the store.
type CatalogLoader struct {
	definitions store.DefinitionStore
	logger      *slog.Logger
}

// NewCatalogLoader creates a new CatalogLoader.
// It returns an error if the definitions store is nil.
func NewCatalogLoader(definitions store.DefinitionStore, logger *slog.Logger) (*CatalogLoader, error) {
	if definitions == nil {
		return nil, NewConfigServiceError("new_catalog_loader", "definitions store cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogLoader{
		definitions: definitions,
		logger:      logger.With(slog.String("component", "catalog_loader")),
	}, nil
}

// LoadDefinitions parses a YAML catalog and upserts every definition by
// key. Re-running the same catalog is idempotent. Returns the number of
// definitions loaded; a single invalid record aborts the load.
func (l *CatalogLoader) LoadDefinitions(ctx context.Context, r io.Reader) (int, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, NewConfigServiceError("load_definitions", "failed to read catalog", err)
	}

	var catalog definitionCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return 0, NewConfigServiceError("load_definitions", "failed to parse catalog", err)
	}

	for idx := range catalog.Definitions {
		def := &catalog.Definitions[idx]
		if def.AppliesTo == "" {
			def.AppliesTo = domain.AppliesToAll
		}
		if def.DataType == "" {
			def.DataType = domain.DataTypeString
		}
		if err := def.Validate(); err != nil {
			return 0, NewConfigServiceError("load_definitions",
				fmt.Sprintf("invalid definition %q", def.Key), err)
		}
		if err := l.definitions.Upsert(ctx, def); err != nil {
			return 0, NewConfigServiceError("load_definitions",
				fmt.Sprintf("failed to upsert %q", def.Key), err)
		}
	}

	log.Info("definition catalog loaded",
		slog.Int("definition_count", len(catalog.Definitions)))
	return len(catalog.Definitions), nil
}
