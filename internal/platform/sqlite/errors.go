package sqlite

import (
	"database/sql"
	"log/slog"
	"strings"
)

// SQLite reports constraint failures through the error text. The driver's
// extended result codes are available but tie callers to driver-internal
// constants; the constraint names in the message are part of SQLite's
// stable error format.

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// closeRows closes a result set, logging (not returning) the close error.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
