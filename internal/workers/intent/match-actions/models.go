// internal/workers/intent/match-actions/models.go
package matchactions

import "gias-workers/internal/intent"

type SubIntent struct {
	Text  string            `json:"text"`
	Slots map[string]string `json:"slots"`
}

type Input struct {
	SubIntents []SubIntent `json:"subIntents"`
	SessionID  string      `json:"sessionId"`
}

// ActionBinding is the best match found for one action across all
// sub-intents, with a call-style signature for prompt construction.
type ActionBinding struct {
	Name        string             `json:"name"`
	Signature   string             `json:"signature"`
	Description string             `json:"description"`
	Match       intent.ActionMatch `json:"match"`
}

// ScopeNote records a sub-intent the scope gate refused, with the model's
// stated reason.
type ScopeNote struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

type Output struct {
	Actions    []ActionBinding `json:"actions"`
	OutOfScope []ScopeNote     `json:"outOfScope,omitempty"`
}
