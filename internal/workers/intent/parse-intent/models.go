// internal/workers/intent/parse-intent/models.go
package parseintent

import "gias-workers/internal/models"

type Input struct {
	Text      string   `json:"text"`
	SessionID string   `json:"sessionId"`
	Lang      string   `json:"lang"`
	// Entities are literal tokens from the input that out-of-scope
	// candidates must keep in their slots (device names etc).
	Entities []string `json:"entities"`
}

type Output struct {
	Candidates    []models.Candidate `json:"candidates"`
	PromptVersion string             `json:"promptVersion"`
	Cached        bool               `json:"cached"`
}
