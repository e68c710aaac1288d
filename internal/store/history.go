package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// HistoryStore defines the interface for the append-only audit trail.
// The interface is structurally append-only: no update or delete method
// exists, so no future caller can tamper with recorded history.
type HistoryStore interface {
	// Append writes one audit record. The generated row ID is written
	// back to entry.
	Append(ctx context.Context, entry *domain.ConfigHistory) error

	// ListForValue returns the change history for one (key, level) tuple,
	// newest first.
	ListForValue(ctx context.Context, key string, level domain.Level) ([]*domain.ConfigHistory, error)

	// ListForProgram returns every change under a program, newest first,
	// optionally bounded by an inclusive date range. Nil bounds are open.
	ListForProgram(ctx context.Context, programID string, from, to *time.Time) ([]*domain.ConfigHistory, error)

	// WithTx returns a new HistoryStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) HistoryStore
}
