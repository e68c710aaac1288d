package store

import (
	"context"
	"database/sql"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// ValueStore defines the interface for explicit configuration value rows.
// One row exists per (key, level) tuple; the uniqueness invariant is
// enforced by the storage layer, not by callers.
type ValueStore interface {
	// GetAtLevel retrieves the row for a key at one exact level. It never
	// walks the hierarchy; inheritance belongs to the resolution engine.
	// Returns ErrValueNotFound if no row exists at that level.
	GetAtLevel(ctx context.Context, key string, level domain.Level) (*domain.ConfigValue, error)

	// Insert saves a new row with version 1. The generated row ID is
	// written back to value.
	// Returns ErrValueExists if a row already occupies the (key, level)
	// tuple.
	Insert(ctx context.Context, value *domain.ConfigValue) error

	// Update replaces the stored value of an existing row and increments
	// its version counter.
	// Returns ErrValueNotFound if the row does not exist.
	Update(ctx context.Context, value *domain.ConfigValue) error

	// ListForResolution returns, in one round trip, every row that could
	// contribute to resolution at the given level: program matches and the
	// clinic/location columns are each null or equal to the level's IDs.
	ListForResolution(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error)

	// ListAtLevel returns the rows stored at one exact level, ordered by key.
	ListAtLevel(ctx context.Context, level domain.Level) ([]*domain.ConfigValue, error)

	// ListByProgram returns every row under a program regardless of tier.
	// Used by consistency validation.
	ListByProgram(ctx context.Context, programID string) ([]*domain.ConfigValue, error)

	// DeleteByProgram removes every value row under a program and returns
	// the number deleted. Audit history is never touched by this operation.
	DeleteByProgram(ctx context.Context, programID string) (int64, error)

	// WithTx returns a new ValueStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ValueStore
}
