package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

const testCatalog = `
definitions:
  - config_key: helpdesk_phone
    category: support
    display_name: Helpdesk Phone
    data_type: phone
    default_value: "800.555.0100"
    is_required: true
  - config_key: sms_enabled
    category: messaging
    display_name: SMS Enabled
    data_type: boolean
    default_value: "false"
    applies_to: clinic
    allowed_values: ["true", "false"]
`

func TestLoadDefinitions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	loader, err := NewCatalogLoader(env.definitions, nil)
	require.NoError(t, err)

	count, err := loader.LoadDefinitions(ctx, strings.NewReader(testCatalog))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	def, err := env.definitions.GetByKey(ctx, "helpdesk_phone")
	require.NoError(t, err)
	assert.Equal(t, domain.DataTypePhone, def.DataType)
	assert.Equal(t, "800.555.0100", def.DefaultValue)
	assert.True(t, def.IsRequired)
	// applies_to defaults to all when the catalog omits it.
	assert.Equal(t, domain.AppliesToAll, def.AppliesTo)

	def, err = env.definitions.GetByKey(ctx, "sms_enabled")
	require.NoError(t, err)
	assert.Equal(t, domain.AppliesToClinic, def.AppliesTo)
	assert.Equal(t, []string{"true", "false"}, def.AllowedValues)
}

func TestLoadDefinitionsIsIdempotent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	loader, err := NewCatalogLoader(env.definitions, nil)
	require.NoError(t, err)

	_, err = loader.LoadDefinitions(ctx, strings.NewReader(testCatalog))
	require.NoError(t, err)

	// A changed default on reload replaces the stored metadata.
	updated := strings.ReplaceAll(testCatalog, "800.555.0100", "800.555.0199")
	_, err = loader.LoadDefinitions(ctx, strings.NewReader(updated))
	require.NoError(t, err)

	defs, err := env.definitions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	def, err := env.definitions.GetByKey(ctx, "helpdesk_phone")
	require.NoError(t, err)
	assert.Equal(t, "800.555.0199", def.DefaultValue)
}

func TestLoadDefinitionsRejectsInvalidRecord(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	loader, err := NewCatalogLoader(env.definitions, nil)
	require.NoError(t, err)

	bad := `
definitions:
  - config_key: ""
    category: support
    display_name: Broken
    data_type: string
`
	_, err = loader.LoadDefinitions(context.Background(), strings.NewReader(bad))
	assert.ErrorIs(t, err, domain.ErrEmptyConfigKey)
}

func TestLoadDefinitionsRejectsMalformedYAML(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	loader, err := NewCatalogLoader(env.definitions, nil)
	require.NoError(t, err)

	_, err = loader.LoadDefinitions(context.Background(), strings.NewReader("definitions: [not closed"))
	assert.Error(t, err)
}
