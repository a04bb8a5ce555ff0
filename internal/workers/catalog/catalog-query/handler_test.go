// internal/workers/catalog/catalog-query/handler_test.go
package catalogquery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
	"gias-workers/internal/kg"
	"gias-workers/internal/models"
)

// fakeRunner returns canned rows and records the last statement it saw,
// so tests can assert which query the handler dispatched.
type fakeRunner struct {
	rows       []map[string]interface{}
	err        error
	lastCypher string
	lastParams map[string]interface{}
}

func (f *fakeRunner) Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	f.lastCypher = cypher
	f.lastParams = params
	return f.rows, f.err
}

func newTestHandler(t *testing.T, runner *fakeRunner) *Handler {
	t.Helper()
	return NewHandler(&Config{Timeout: 5 * time.Second}, kg.NewCatalog(runner), nil, logger.NewTestLogger(t))
}

func TestExecute_ListActions(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]interface{}{
		{"name": "AnswerFAQ"}, {"name": "LocateExhibit"},
	}}
	handler := newTestHandler(t, runner)

	output, err := handler.Execute(context.Background(), &Input{QueryType: "list_actions"})
	require.NoError(t, err)

	assert.Equal(t, "list_actions", output.QueryType)
	assert.Equal(t, 2, output.Count)
	assert.Contains(t, runner.lastCypher, "MATCH (a:Action)")
}

func TestExecute_ActionsByAgent_EmptyResult(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestHandler(t, runner)

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: "actions_by_agent",
		Params:    map[string]interface{}{"agent_id": "guide-agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.Equal(t, "guide-agent", runner.lastParams["agent_id"])
}

func TestExecute_TopicsOfAction(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]interface{}{
		{"request_topic": "gias.expo.nav.locate_exhibit.req.v1", "response_topic": nil},
	}}
	handler := newTestHandler(t, runner)

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: "topics_of_action",
		Params:    map[string]interface{}{"action_name": "LocateExhibit"},
	})
	require.NoError(t, err)

	topics, ok := output.Result.(models.ActionTopics)
	require.True(t, ok)
	assert.Equal(t, "gias.expo.nav.locate_exhibit.req.v1", topics.RequestTopic)
	assert.Equal(t, "", topics.ResponseTopic)
}

func TestExecute_InvalidQueryType(t *testing.T) {
	handler := newTestHandler(t, &fakeRunner{})

	_, err := handler.Execute(context.Background(), &Input{QueryType: "drop_all"})
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeInvalidQueryType, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecute_MissingRequiredParam(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestHandler(t, runner)

	tests := []struct {
		queryType string
	}{
		{"actions_by_agent"},
		{"params_of_action"},
		{"topics_of_action"},
		{"search_actions_prefix"},
		{"search_actions_contains"},
	}

	for _, tt := range tests {
		t.Run(tt.queryType, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), &Input{QueryType: tt.queryType})
			require.Error(t, err)
			assert.True(t, commonerrors.IsValidationError(err))
			assert.Empty(t, runner.lastCypher, "invalid input must be rejected before hitting the store")
		})
	}
}

func TestExecute_StorageErrorPropagates(t *testing.T) {
	runner := &fakeRunner{err: commonerrors.NewStorageError("list_actions", assert.AnError)}
	handler := newTestHandler(t, runner)

	_, err := handler.Execute(context.Background(), &Input{QueryType: "list_actions"})
	require.Error(t, err)
	assert.True(t, commonerrors.IsStorageError(err))
	assert.Equal(t, int32(3), retriesFor(err))
}

func TestRecordJob_WithAndWithoutObservability(t *testing.T) {
	// No recorder configured: recording must be a no-op, not a panic.
	bare := newTestHandler(t, &fakeRunner{})
	assert.NotPanics(t, func() { bare.recordJob("success", time.Now()) })

	obs := observability.New("catalog-query-test")
	defer obs.Shutdown()
	wired := NewHandler(&Config{Timeout: 5 * time.Second}, kg.NewCatalog(&fakeRunner{}), obs, logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		wired.recordJob("success", time.Now())
		wired.recordJob("error", time.Now())
	})
}
