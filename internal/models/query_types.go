// internal/models/query_types.go
package models

// CatalogQueryType names a catalog read operation. The string values double
// as the wire values accepted by the catalog-query worker.
type CatalogQueryType string

const (
	QueryListActions           CatalogQueryType = "list_actions"
	QueryListAgents            CatalogQueryType = "list_agents"
	QueryActionsByAgent        CatalogQueryType = "actions_by_agent"
	QueryParamsOfAction        CatalogQueryType = "params_of_action"
	QueryTopicsOfAction        CatalogQueryType = "topics_of_action"
	QuerySearchActionsPrefix   CatalogQueryType = "search_actions_prefix"
	QuerySearchActionsContains CatalogQueryType = "search_actions_contains"
	QueryAgentActionCounts     CatalogQueryType = "agent_action_counts"
)

// IsValid reports whether t names a supported catalog query.
func (t CatalogQueryType) IsValid() bool {
	switch t {
	case QueryListActions, QueryListAgents, QueryActionsByAgent,
		QueryParamsOfAction, QueryTopicsOfAction,
		QuerySearchActionsPrefix, QuerySearchActionsContains,
		QueryAgentActionCounts:
		return true
	}
	return false
}
