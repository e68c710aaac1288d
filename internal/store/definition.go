package store

import (
	"context"
	"database/sql"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// DefinitionStore defines the interface for the configuration key catalog.
// The catalog is loaded in bulk from a declarative source and read-mostly
// afterwards.
type DefinitionStore interface {
	// Upsert inserts the definition or, when the key already exists,
	// replaces its metadata. Re-running a catalog load is idempotent.
	Upsert(ctx context.Context, def *domain.ConfigDefinition) error

	// GetByKey retrieves one definition.
	// Returns ErrDefinitionNotFound if the key is not registered.
	GetByKey(ctx context.Context, key string) (*domain.ConfigDefinition, error)

	// List returns every registered definition ordered by category and
	// display order. Batch resolution derives its key→default map from
	// this single round trip.
	List(ctx context.Context) ([]*domain.ConfigDefinition, error)

	// WithTx returns a new DefinitionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) DefinitionStore
}
