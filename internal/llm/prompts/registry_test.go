// internal/llm/prompts/registry_test.go
package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gias-workers/internal/common/errors"
)

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry()

	names := registry.List()
	assert.Contains(t, names, "intent_parse_v1")
	assert.Contains(t, names, "intent_parse_v2")
	assert.Contains(t, names, "scope_gate_v1")
}

func TestRegistry_Load_InfersVersion(t *testing.T) {
	registry := NewRegistry()

	_, meta, err := registry.Load("intent_parse_v2")
	require.NoError(t, err)
	assert.Equal(t, "intent_parse_v2", meta.Name)
	assert.Equal(t, "v2", meta.Version)
	assert.Equal(t, []string{"system", "user"}, meta.Roles)
}

func TestRegistry_Load_Missing(t *testing.T) {
	registry := NewRegistry()

	_, _, err := registry.Load("no_such_template")
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodePromptNotFound, stdErr.Code)
}

func TestRegistry_Render_RoleSections(t *testing.T) {
	registry := NewRegistry()

	messages, meta, err := registry.Render("intent_parse_v1", nil, "幫我找 A12 攤位在哪裡")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Contains(t, messages[1].Content, "A12")
	assert.Equal(t, "v1", meta.Version)
}

func TestRegistry_Render_UnknownVariableKept(t *testing.T) {
	registry := NewRegistry()

	messages, _, err := registry.Render("scope_gate_v1", map[string]string{
		"intention": "找 B 區的飲水機",
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, messages)

	// actions was not supplied, so the placeholder stays visible.
	assert.Contains(t, messages[0].Content, "{{actions}}")
}

func TestRegistry_Render_VariableSubstitution(t *testing.T) {
	registry := NewRegistry()

	messages, _, err := registry.Render("scope_gate_v1", map[string]string{
		"intention": "播放音樂",
		"actions":   "- LocateExhibit\n- AnswerFAQ",
	}, "")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Contains(t, messages[0].Content, "- LocateExhibit")
	assert.Contains(t, messages[1].Content, "播放音樂")
}
