// internal/models/catalog.go
package models

// ActionSummary is the list/search row shape for actions.
type ActionSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
}

// AgentInfo describes a registered agent.
type AgentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Version     string `json:"version,omitempty"`
}

// ParamSpec describes one declared parameter of an action.
type ParamSpec struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
	Example     string   `json:"example,omitempty"`
}

// ActionTopics carries the request/response topic names wired to an action.
// A side with no topic is the empty string, never omitted.
type ActionTopics struct {
	RequestTopic  string `json:"request_topic"`
	ResponseTopic string `json:"response_topic"`
}

// AgentActionCount is one row of the per-agent action tally.
type AgentActionCount struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	ActionCount int64  `json:"action_count"`
}
