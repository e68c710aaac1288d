package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigServiceError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := NewConfigServiceError("set_value", "failed to insert value row", base)

	assert.Equal(t, "config service set_value failed: failed to insert value row: boom", err.Error())
	assert.ErrorIs(t, err, base)

	var svcErr *ConfigServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "set_value", svcErr.Operation)
}

func TestConfigServiceErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := NewConfigServiceError("resolve_all", "failed to list definitions", nil)
	assert.Equal(t, "config service resolve_all failed: failed to list definitions", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
