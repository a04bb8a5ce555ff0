// internal/intent/scopegate_test.go
package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gias-workers/internal/common/logger"
	"gias-workers/internal/llm"
	"gias-workers/internal/llm/prompts"
	"gias-workers/internal/models"
)

type scriptedChatter struct {
	response string
	err      error
	lastReq  llm.ChatRequest
}

func (c *scriptedChatter) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	c.lastReq = req
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

var expoActions = []models.ActionSummary{
	{Name: "LocateExhibit", Description: "找展區、攤位或展品位置"},
	{Name: "AnswerFAQ", Description: "回答展場常見問題"},
}

func TestScopeGate_AllowsServableIntent(t *testing.T) {
	chatter := &scriptedChatter{response: `{"can_execute": true, "reason": "LocateExhibit covers it"}`}
	gate := NewScopeGate(chatter, prompts.NewRegistry(), logger.NewNoOpLogger())

	decision := gate.Decide(context.Background(), "找 A12 攤位", expoActions)

	assert.True(t, decision.CanExecute)
	assert.Equal(t, "LocateExhibit covers it", decision.Reason)
	assert.Equal(t, "scope_gate", chatter.lastReq.Task)
}

func TestScopeGate_RejectsUnservableIntent(t *testing.T) {
	chatter := &scriptedChatter{response: `{"can_execute": false, "reason": "no repair capability"}`}
	gate := NewScopeGate(chatter, prompts.NewRegistry(), logger.NewNoOpLogger())

	decision := gate.Decide(context.Background(), "修理我的手機", expoActions)

	assert.False(t, decision.CanExecute)
	assert.Equal(t, "no repair capability", decision.Reason)
}

func TestScopeGate_FailsOpenOnCallError(t *testing.T) {
	chatter := &scriptedChatter{err: errors.New("status 503: service unavailable")}
	gate := NewScopeGate(chatter, prompts.NewRegistry(), logger.NewNoOpLogger())

	decision := gate.Decide(context.Background(), "找 A12 攤位", expoActions)

	assert.True(t, decision.CanExecute)
	assert.Contains(t, decision.Reason, "allow by default")
}

func TestScopeGate_FailsOpenOnMalformedJSON(t *testing.T) {
	chatter := &scriptedChatter{response: "我覺得可以執行"}
	gate := NewScopeGate(chatter, prompts.NewRegistry(), logger.NewNoOpLogger())

	decision := gate.Decide(context.Background(), "找 A12 攤位", expoActions)

	assert.True(t, decision.CanExecute)
}

func TestScopeGate_EmptyReasonGetsDefault(t *testing.T) {
	chatter := &scriptedChatter{response: `{"can_execute": false, "reason": ""}`}
	gate := NewScopeGate(chatter, prompts.NewRegistry(), logger.NewNoOpLogger())

	decision := gate.Decide(context.Background(), "播放音樂", expoActions)

	assert.False(t, decision.CanExecute)
	assert.Equal(t, "no reason provided", decision.Reason)
}
