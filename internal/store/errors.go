package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrProgramNotFound, ErrClinicNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second value row at the same level).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrProgramNotFound indicates that the requested program does not exist.
	ErrProgramNotFound = fmt.Errorf("%w: program", ErrNotFound)

	// ErrClinicNotFound indicates that the requested clinic does not exist.
	ErrClinicNotFound = fmt.Errorf("%w: clinic", ErrNotFound)

	// ErrLocationNotFound indicates that the requested location does not exist.
	ErrLocationNotFound = fmt.Errorf("%w: location", ErrNotFound)

	// ErrDefinitionNotFound indicates that the requested config definition
	// is not registered in the catalog.
	ErrDefinitionNotFound = fmt.Errorf("%w: config definition", ErrNotFound)

	// ErrValueNotFound indicates that no config value row exists at the
	// requested exact level.
	ErrValueNotFound = fmt.Errorf("%w: config value", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrValueExists indicates that a value row already exists at the exact
	// (key, level) tuple. The uniqueness invariant on config_values allows
	// at most one row per tuple.
	ErrValueExists = fmt.Errorf("%w: config value at level", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "program", "config_value")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
