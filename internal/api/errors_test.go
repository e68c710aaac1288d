package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glewis05/configurations-toolkit/internal/domain"
	"github.com/glewis05/configurations-toolkit/internal/service"
	"github.com/glewis05/configurations-toolkit/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"program not found", store.ErrProgramNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrClinicNotFound), http.StatusNotFound},
		{"definition not found", store.ErrDefinitionNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"value exists", store.ErrValueExists, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid level", service.ErrInvalidLevel, http.StatusBadRequest},
		{"level not allowed", service.ErrLevelNotAllowed, http.StatusBadRequest},
		{"no scope locations", service.ErrNoScopeLocations, http.StatusBadRequest},
		{"empty program id", domain.ErrEmptyProgramID, http.StatusBadRequest},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"program not found", store.ErrProgramNotFound, "Program not found"},
		{"value exists", store.ErrValueExists, "Resource already exists"},
		{"level not allowed", service.ErrLevelNotAllowed, "Key may not be set at this level"},
		{"empty key", domain.ErrEmptyConfigKey, "Configuration key is required"},
		{"internal detail hidden", errors.New("pq: connection refused host=10.0.0.5"), "An unexpected error occurred"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New("Key: 'SetValueRequest.Key' Error:Field validation for 'Key' failed on the 'required' tag")
	assert.Equal(t, "Invalid Key: required field", SanitizeValidationError(err))

	err = errors.New("Key: 'CreateProgramRequest.Type' Error:Field validation for 'Type' failed on the 'oneof' tag")
	assert.Equal(t, "Invalid Type: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else entirely")))
}
