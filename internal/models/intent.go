// internal/models/intent.go
package models

import "strings"

// Candidate is one validated intent guess. Candidates are ordered: position
// in the list is priority. The reserved slot keys out_of_scope and
// out_of_scope_reason are lifted out of Slots into typed fields during
// validation, so Slots always holds flat string values.
type Candidate struct {
	IntentID         string            `json:"intent_id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Slots            map[string]string `json:"slots"`
	OutOfScope       bool              `json:"out_of_scope,omitempty"`
	OutOfScopeReason string            `json:"out_of_scope_reason,omitempty"`
}

// ParseResult is the validated output of one model response.
type ParseResult struct {
	Candidates []Candidate `json:"candidates"`
}

// SlotValue returns the value for key, and whether the key is declared.
// A declared-but-unknown slot is the empty string, never absent.
func (c *Candidate) SlotValue(key string) (string, bool) {
	v, ok := c.Slots[key]
	return v, ok
}

// HasLiteralEntity reports whether any slot value contains the given token.
// Used to check that out-of-scope candidates still carry the real-world
// entity the user mentioned.
func (c *Candidate) HasLiteralEntity(token string) bool {
	if token == "" {
		return false
	}
	for _, v := range c.Slots {
		if strings.Contains(v, token) {
			return true
		}
	}
	return false
}
