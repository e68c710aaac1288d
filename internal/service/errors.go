package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrInvalidLevel indicates a hierarchy level that names a location
	// without its clinic, or is otherwise malformed.
	ErrInvalidLevel = errors.New("invalid hierarchy level")

	// ErrLevelNotAllowed indicates a write at a tier the key's applies_to
	// constraint forbids.
	ErrLevelNotAllowed = errors.New("level not allowed for config key")

	// ErrNoScopeLocations indicates a parsed document whose configs cannot
	// be routed because the document names no locations.
	ErrNoScopeLocations = errors.New("document has no scope locations")
)

// ConfigServiceError is a custom error type for configuration engine errors.
type ConfigServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ConfigServiceError.
func (e *ConfigServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("config service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ConfigServiceError) Unwrap() error {
	return e.Err
}

// NewConfigServiceError creates a new ConfigServiceError.
func NewConfigServiceError(operation, message string, err error) *ConfigServiceError {
	return &ConfigServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
