// internal/intent/scopegate.go
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gias-workers/internal/common/logger"
	"gias-workers/internal/llm"
	"gias-workers/internal/llm/prompts"
	"gias-workers/internal/models"
)

// ScopeDecision is the gate's verdict on one intention.
type ScopeDecision struct {
	CanExecute bool   `json:"can_execute"`
	Reason     string `json:"reason"`
}

// Chatter is the completion surface the gate needs. *llm.Client satisfies
// this.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// ScopeGate asks the model whether an intention is servable by the
// available actions, without letting it rewrite the intention. The gate
// fails open: when the gate itself breaks, blocking a legitimate request is
// worse than passing a doomed one through to the matcher.
type ScopeGate struct {
	client   Chatter
	registry *prompts.Registry
	logger   logger.Logger
}

// NewScopeGate creates a scope gate over the given completion client.
func NewScopeGate(client Chatter, registry *prompts.Registry, log logger.Logger) *ScopeGate {
	return &ScopeGate{
		client:   client,
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "scope_gate"}),
	}
}

// Decide checks whether the intention can be completed using only the given
// actions.
func (g *ScopeGate) Decide(ctx context.Context, intention string, actions []models.ActionSummary) ScopeDecision {
	var capabilities strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&capabilities, "- %s: %s\n", a.Name, a.Description)
	}

	messages, meta, err := g.registry.Render("scope_gate_v1", map[string]string{
		"intention": intention,
		"actions":   capabilities.String(),
	}, "")
	if err != nil {
		g.logger.WithError(err).Warn("scope gate template failed, allowing by default", nil)
		return ScopeDecision{CanExecute: true, Reason: "scope gate unavailable; allow by default"}
	}

	raw, err := g.client.Chat(ctx, llm.ChatRequest{
		Task:          "scope_gate",
		PromptVersion: meta.Version,
		Messages:      messages,
	})
	if err != nil {
		g.logger.WithError(err).Warn("scope gate call failed, allowing by default", nil)
		return ScopeDecision{CanExecute: true, Reason: "scope gate unavailable; allow by default"}
	}

	var decision ScopeDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decision); err != nil {
		g.logger.WithError(err).Warn("scope gate returned malformed JSON, allowing by default", nil)
		return ScopeDecision{CanExecute: true, Reason: "scope gate unavailable; allow by default"}
	}

	if strings.TrimSpace(decision.Reason) == "" {
		decision.Reason = "no reason provided"
	}
	return decision
}
