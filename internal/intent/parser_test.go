// internal/intent/parser_test.go
package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gias-workers/internal/common/errors"
)

func newTestParser(t *testing.T, preserveLiterals bool) *Parser {
	t.Helper()
	parser, err := NewParser(ExpoProfile(preserveLiterals))
	require.NoError(t, err)
	return parser
}

func TestParseResponse_ValidSingleCandidate(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [{"intent_id": "I001", "name": "LocateExhibit",
		"description": "找攤位", "slots": {"target_type": "攤位", "target_name": "A12"}}]}`

	result, err := parser.ParseResponse(raw, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)

	c := result.Candidates[0]
	assert.Equal(t, "I001", c.IntentID)
	assert.Equal(t, "booth", c.Slots["target_type"])
	assert.Equal(t, "A12", c.Slots["target_name"])
	assert.False(t, c.OutOfScope)
}

func TestParseResponse_OrderIsPriority(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [
		{"intent_id": "I002", "name": "SuggestRoute", "slots": {}},
		{"intent_id": "I001", "name": "LocateExhibit", "slots": {}}
	]}`

	result, err := parser.ParseResponse(raw, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	// Insertion order is preserved; the id does not imply position.
	assert.Equal(t, "SuggestRoute", result.Candidates[0].Name)
	assert.Equal(t, "LocateExhibit", result.Candidates[1].Name)
}

func TestParseResponse_FormatErrors(t *testing.T) {
	parser := newTestParser(t, false)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "好的，我幫你查詢。"},
		{"code fence", "```json\n{\"candidates\": []}\n```"},
		{"prose before object", "以下是結果：{\"candidates\": []}"},
		{"trailing content", `{"candidates": []} 希望這有幫助`},
		{"two objects", `{"candidates": []}{"candidates": []}`},
		{"array not object", `[{"intent_id": "I001"}]`},
		{"candidates missing", `{"results": []}`},
		{"candidates not a list", `{"candidates": {"intent_id": "I001"}}`},
		{"truncated json", `{"candidates": [{"intent_id": "I0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseResponse(tt.raw, ParseOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsFormatError(err), "want format error, got %v", err)
		})
	}
}

func TestParseResponse_ValidationErrors(t *testing.T) {
	parser := newTestParser(t, false)

	tests := []struct {
		name string
		raw  string
	}{
		{
			"bad intent id pattern",
			`{"candidates": [{"intent_id": "X001", "name": "A", "slots": {}}]}`,
		},
		{
			"intent id too short",
			`{"candidates": [{"intent_id": "I01", "name": "A", "slots": {}}]}`,
		},
		{
			"intent id with suffix",
			`{"candidates": [{"intent_id": "I0012", "name": "A", "slots": {}}]}`,
		},
		{
			"duplicate intent id",
			`{"candidates": [
				{"intent_id": "I001", "name": "A", "slots": {}},
				{"intent_id": "I001", "name": "B", "slots": {}}
			]}`,
		},
		{
			"nested slot value",
			`{"candidates": [{"intent_id": "I001", "name": "A",
				"slots": {"target": {"name": "A12"}}}]}`,
		},
		{
			"numeric slot value",
			`{"candidates": [{"intent_id": "I001", "name": "A", "slots": {"count": 3}}]}`,
		},
		{
			"null slot value",
			`{"candidates": [{"intent_id": "I001", "name": "A", "slots": {"target_name": null}}]}`,
		},
		{
			"out_of_scope without reason",
			`{"candidates": [{"intent_id": "I001", "name": "A",
				"slots": {"out_of_scope": true}}]}`,
		},
		{
			"out_of_scope with blank reason",
			`{"candidates": [{"intent_id": "I001", "name": "A",
				"slots": {"out_of_scope": true, "out_of_scope_reason": "  "}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseResponse(tt.raw, ParseOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "want validation error, got %v", err)
		})
	}
}

func TestParseResponse_OneBadCandidateRejectsWholeResponse(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [
		{"intent_id": "I001", "name": "LocateExhibit", "slots": {"target_name": "A12"}},
		{"intent_id": "BAD", "name": "SuggestRoute", "slots": {}}
	]}`

	_, err := parser.ParseResponse(raw, ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseResponse_EmptySlotValuesAllowed(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [{"intent_id": "I001", "name": "LocateFacility",
		"slots": {"facility_type": "廁所", "floor": ""}}]}`

	result, err := parser.ParseResponse(raw, ParseOptions{})
	require.NoError(t, err)

	// Unknown value stays as an empty string so emptiness is the
	// required-but-missing test downstream.
	floor, declared := result.Candidates[0].SlotValue("floor")
	assert.True(t, declared)
	assert.Equal(t, "", floor)
}

func TestParseResponse_FacilityTypeKeepsUserWording(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [{"intent_id": "I001", "name": "LocateFacility",
		"slots": {"facility_type": "哺乳室"}}]}`

	result, err := parser.ParseResponse(raw, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "哺乳室", result.Candidates[0].Slots["facility_type"])
}

func TestParseResponse_OutOfScopeKeptNotDropped(t *testing.T) {
	parser := newTestParser(t, true)

	raw := `{"candidates": [{"intent_id": "I001", "name": "RepairRequest",
		"slots": {"out_of_scope": true,
			"out_of_scope_reason": "維修服務不在展場導覽範圍",
			"device": "iPhone 17"}}]}`

	result, err := parser.ParseResponse(raw, ParseOptions{RequiredEntities: []string{"iPhone 17"}})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)

	c := result.Candidates[0]
	assert.True(t, c.OutOfScope)
	assert.NotEmpty(t, c.OutOfScopeReason)
	assert.Equal(t, "iPhone 17", c.Slots["device"])
}

func TestParseResponse_OutOfScopeMustPreserveEntity(t *testing.T) {
	parser := newTestParser(t, true)

	// The model abstracted "iPhone 17" away into a category word.
	raw := `{"candidates": [{"intent_id": "I001", "name": "RepairRequest",
		"slots": {"out_of_scope": true,
			"out_of_scope_reason": "維修服務不在展場導覽範圍",
			"device": "手機"}}]}`

	_, err := parser.ParseResponse(raw, ParseOptions{RequiredEntities: []string{"iPhone 17"}})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseResponse_OutOfScopeFalseIsInScope(t *testing.T) {
	parser := newTestParser(t, false)

	raw := `{"candidates": [{"intent_id": "I001", "name": "LocateExhibit",
		"slots": {"out_of_scope": false, "target_name": "A12"}}]}`

	result, err := parser.ParseResponse(raw, ParseOptions{})
	require.NoError(t, err)
	assert.False(t, result.Candidates[0].OutOfScope)
}
