// Package kg holds the read-only query catalog over the agent/action graph.
//
// Queries are built as (cypher, params) pairs so they can be inspected and
// tested without a live store. All of them are single bounded traversals over
// five node labels: Agent, Action, Param, Topic, MessageSchema.
package kg

import (
	"fmt"

	"gias-workers/internal/models"
)

// Query is a parameterized Cypher statement ready for execution.
type Query struct {
	Cypher string
	Params map[string]interface{}
}

// ListActionsQuery returns all actions ordered by name.
func ListActionsQuery() Query {
	return Query{
		Cypher: `
			MATCH (a:Action)
			RETURN a.name AS name, a.description AS description, a.version AS version
			ORDER BY a.name`,
		Params: map[string]interface{}{},
	}
}

// ListAgentsQuery returns all agents ordered by id.
func ListAgentsQuery() Query {
	return Query{
		Cypher: `
			MATCH (ag:Agent)
			RETURN ag.id AS id, ag.name AS name, ag.description AS description,
			       ag.status AS status, ag.version AS version
			ORDER BY ag.id`,
		Params: map[string]interface{}{},
	}
}

// ActionsByAgentQuery returns the actions an agent implements. An agent with
// no IMPLEMENTS edges simply yields zero rows.
func ActionsByAgentQuery(agentID string) Query {
	return Query{
		Cypher: `
			MATCH (ag:Agent {id: $agent_id})-[:IMPLEMENTS]->(a:Action)
			RETURN a.name AS name, a.description AS description, a.version AS version
			ORDER BY a.name`,
		Params: map[string]interface{}{"agent_id": agentID},
	}
}

// ParamsOfActionQuery returns an action's declared parameters, required
// parameters first, then alphabetical by key.
func ParamsOfActionQuery(actionName string) Query {
	return Query{
		Cypher: `
			MATCH (a:Action {name: $action_name})-[:HAS_PARAM]->(p:Param)
			RETURN p.key AS key, p.name AS name, p.description AS description,
			       p.type AS type, coalesce(p.required, false) AS required,
			       p.enum AS enum, p.example AS example
			ORDER BY coalesce(p.required, false) DESC, p.key ASC`,
		Params: map[string]interface{}{"action_name": actionName},
	}
}

// TopicsOfActionQuery returns the request and response topic of an action.
// Either side may be null when the edge does not exist; the query itself
// never fails on a missing relationship.
func TopicsOfActionQuery(actionName string) Query {
	return Query{
		Cypher: `
			MATCH (a:Action {name: $action_name})
			OPTIONAL MATCH (a)-[:REQUESTS]->(req:Topic)
			OPTIONAL MATCH (a)-[:RESPONDS]->(resp:Topic)
			RETURN req.name AS request_topic, resp.name AS response_topic`,
		Params: map[string]interface{}{"action_name": actionName},
	}
}

// SearchActionsPrefixQuery matches action names by prefix. Prefix search is
// case-sensitive; keyword search below is not. Both behaviors are relied on
// by callers, do not unify them.
func SearchActionsPrefixQuery(prefix string) Query {
	return Query{
		Cypher: `
			MATCH (a:Action)
			WHERE a.name STARTS WITH $prefix
			RETURN a.name AS name, a.description AS description, a.version AS version
			ORDER BY a.name`,
		Params: map[string]interface{}{"prefix": prefix},
	}
}

// SearchActionsContainsQuery matches actions whose name or description
// contains the keyword, case-insensitively.
func SearchActionsContainsQuery(keyword string) Query {
	return Query{
		Cypher: `
			MATCH (a:Action)
			WHERE toLower(a.name) CONTAINS toLower($keyword)
			   OR toLower(a.description) CONTAINS toLower($keyword)
			RETURN a.name AS name, a.description AS description, a.version AS version
			ORDER BY a.name`,
		Params: map[string]interface{}{"keyword": keyword},
	}
}

// AgentActionCountsQuery tallies implemented actions per agent, busiest
// first. Agents with zero IMPLEMENTS edges are excluded by the match.
func AgentActionCountsQuery() Query {
	return Query{
		Cypher: `
			MATCH (ag:Agent)-[:IMPLEMENTS]->(a:Action)
			RETURN ag.id AS agent_id, ag.name AS agent_name, count(a) AS action_count
			ORDER BY action_count DESC`,
		Params: map[string]interface{}{},
	}
}

// BuildQuery dispatches a query type plus raw parameters to the matching
// builder. Unknown types and missing required parameters are reported as
// non-retryable input errors by the caller.
func BuildQuery(queryType models.CatalogQueryType, params map[string]interface{}) (Query, error) {
	strParam := func(key string) (string, error) {
		v, ok := params[key]
		if !ok {
			return "", fmt.Errorf("query %q requires parameter %q", queryType, key)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("parameter %q of query %q must be a non-empty string", key, queryType)
		}
		return s, nil
	}

	switch queryType {
	case models.QueryListActions:
		return ListActionsQuery(), nil
	case models.QueryListAgents:
		return ListAgentsQuery(), nil
	case models.QueryActionsByAgent:
		agentID, err := strParam("agent_id")
		if err != nil {
			return Query{}, err
		}
		return ActionsByAgentQuery(agentID), nil
	case models.QueryParamsOfAction:
		actionName, err := strParam("action_name")
		if err != nil {
			return Query{}, err
		}
		return ParamsOfActionQuery(actionName), nil
	case models.QueryTopicsOfAction:
		actionName, err := strParam("action_name")
		if err != nil {
			return Query{}, err
		}
		return TopicsOfActionQuery(actionName), nil
	case models.QuerySearchActionsPrefix:
		prefix, err := strParam("prefix")
		if err != nil {
			return Query{}, err
		}
		return SearchActionsPrefixQuery(prefix), nil
	case models.QuerySearchActionsContains:
		keyword, err := strParam("keyword")
		if err != nil {
			return Query{}, err
		}
		return SearchActionsContainsQuery(keyword), nil
	case models.QueryAgentActionCounts:
		return AgentActionCountsQuery(), nil
	default:
		return Query{}, fmt.Errorf("unsupported query type %q", queryType)
	}
}
