package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/glewis05/configurations-toolkit/internal/api/shared"
	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/service"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrProgramNotFound),
		errors.Is(err, store.ErrClinicNotFound),
		errors.Is(err, store.ErrLocationNotFound),
		errors.Is(err, store.ErrDefinitionNotFound),
		errors.Is(err, store.ErrValueNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrValueExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrLevelNotAllowed),
		errors.Is(err, service.ErrNoScopeLocations),
		errors.Is(err, domain.ErrEmptyConfigKey),
		errors.Is(err, domain.ErrEmptyProgramID),
		errors.Is(err, domain.ErrEmptyClinicID),
		errors.Is(err, domain.ErrEmptyLocationID):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrProgramNotFound):
		return "Program not found"

	case errors.Is(err, store.ErrClinicNotFound):
		return "Clinic not found"

	case errors.Is(err, store.ErrLocationNotFound):
		return "Location not found"

	case errors.Is(err, store.ErrDefinitionNotFound):
		return "Configuration key not found"

	case errors.Is(err, store.ErrValueNotFound):
		return "Configuration value not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrValueExists):
		return "Resource already exists"

	case errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, domain.ErrEmptyProgramID),
		errors.Is(err, domain.ErrEmptyClinicID),
		errors.Is(err, domain.ErrEmptyLocationID):
		return "Invalid hierarchy level"

	case errors.Is(err, service.ErrLevelNotAllowed):
		return "Key may not be set at this level"

	case errors.Is(err, service.ErrNoScopeLocations):
		return "Document names no locations"

	case errors.Is(err, domain.ErrEmptyConfigKey):
		return "Configuration key is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the sanitized JSON error response for err, using
// defaultMsg when no safer mapping exists, and logs the full error with
// its trace ID.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if message == "An unexpected error occurred" && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'SetValueRequest.Key' Error:Field validation for 'Key' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
