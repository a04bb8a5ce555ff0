// internal/kg/catalog.go
package kg

import (
	"context"
	"fmt"

	"gias-workers/internal/common/errors"
	"gias-workers/internal/models"
)

// Runner executes a read-only Cypher statement and returns one map per row.
// *database.Neo4jClient satisfies this; tests supply fakes.
type Runner interface {
	Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error)
}

// Catalog is the typed read API over the agent/action graph.
type Catalog struct {
	runner Runner
}

// NewCatalog creates a catalog over the given query runner.
func NewCatalog(runner Runner) *Catalog {
	return &Catalog{runner: runner}
}

// ListActions returns every registered action, ordered by name.
func (c *Catalog) ListActions(ctx context.Context) ([]models.ActionSummary, error) {
	q := ListActionsQuery()
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapActionSummaries("list_actions", rows)
}

// ListAgents returns every registered agent, ordered by id.
func (c *Catalog) ListAgents(ctx context.Context) ([]models.AgentInfo, error) {
	q := ListAgentsQuery()
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapAgentInfos("list_agents", rows)
}

// ActionsByAgent returns the actions implemented by the given agent.
// An unknown agent or one with no actions yields an empty slice, not an error.
func (c *Catalog) ActionsByAgent(ctx context.Context, agentID string) ([]models.ActionSummary, error) {
	q := ActionsByAgentQuery(agentID)
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapActionSummaries("actions_by_agent", rows)
}

// ParamsOfAction returns the declared parameters of an action, required
// parameters first.
func (c *Catalog) ParamsOfAction(ctx context.Context, actionName string) ([]models.ParamSpec, error) {
	q := ParamsOfActionQuery(actionName)
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapParamSpecs("params_of_action", rows)
}

// TopicsOfAction returns the request/response topic names wired to an
// action. A missing edge comes back as the empty string.
func (c *Catalog) TopicsOfAction(ctx context.Context, actionName string) (models.ActionTopics, error) {
	q := TopicsOfActionQuery(actionName)
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return models.ActionTopics{}, err
	}
	return mapActionTopics(rows), nil
}

// SearchActionsPrefix matches action names by case-sensitive prefix.
func (c *Catalog) SearchActionsPrefix(ctx context.Context, prefix string) ([]models.ActionSummary, error) {
	q := SearchActionsPrefixQuery(prefix)
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapActionSummaries("search_actions_prefix", rows)
}

// SearchActionsContains matches actions whose name or description contains
// the keyword, case-insensitively.
func (c *Catalog) SearchActionsContains(ctx context.Context, keyword string) ([]models.ActionSummary, error) {
	q := SearchActionsContainsQuery(keyword)
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapActionSummaries("search_actions_contains", rows)
}

// AgentActionCounts tallies implemented actions per agent, busiest first.
func (c *Catalog) AgentActionCounts(ctx context.Context) ([]models.AgentActionCount, error) {
	q := AgentActionCountsQuery()
	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return nil, err
	}
	return mapAgentActionCounts("agent_action_counts", rows)
}

// QueryResult is the outcome of a dispatched catalog query: the typed
// rows plus how many came back.
type QueryResult struct {
	Result interface{}
	Count  int
}

// Dispatch validates and runs the query named by queryType against the
// graph and maps the rows into their typed form. The Cypher and the
// required-parameter rules come from BuildQuery, so callers dispatching on
// raw input share one definition of every query. Parameter problems and
// unknown query types surface as non-retryable validation errors.
func (c *Catalog) Dispatch(ctx context.Context, queryType models.CatalogQueryType, params map[string]interface{}) (QueryResult, error) {
	q, err := BuildQuery(queryType, params)
	if err != nil {
		return QueryResult{}, errors.NewValidationError(err.Error())
	}

	rows, err := c.runner.Read(ctx, q.Cypher, q.Params)
	if err != nil {
		return QueryResult{}, err
	}

	operation := string(queryType)
	switch queryType {
	case models.QueryListActions, models.QueryActionsByAgent,
		models.QuerySearchActionsPrefix, models.QuerySearchActionsContains:
		actions, err := mapActionSummaries(operation, rows)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Result: actions, Count: len(actions)}, nil
	case models.QueryListAgents:
		agents, err := mapAgentInfos(operation, rows)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Result: agents, Count: len(agents)}, nil
	case models.QueryParamsOfAction:
		specs, err := mapParamSpecs(operation, rows)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Result: specs, Count: len(specs)}, nil
	case models.QueryTopicsOfAction:
		return QueryResult{Result: mapActionTopics(rows), Count: len(rows)}, nil
	case models.QueryAgentActionCounts:
		counts, err := mapAgentActionCounts(operation, rows)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Result: counts, Count: len(counts)}, nil
	default:
		// BuildQuery rejects unknown types before execution.
		return QueryResult{}, errors.NewValidationError(fmt.Sprintf("unsupported query type %q", queryType))
	}
}

// --- row mapping helpers ---

func mapActionSummaries(operation string, rows []map[string]interface{}) ([]models.ActionSummary, error) {
	actions := make([]models.ActionSummary, 0, len(rows))
	for _, row := range rows {
		name, err := stringCol(operation, row, "name")
		if err != nil {
			return nil, err
		}
		actions = append(actions, models.ActionSummary{
			Name:        name,
			Description: optString(row, "description"),
			Version:     optString(row, "version"),
		})
	}
	return actions, nil
}

func mapAgentInfos(operation string, rows []map[string]interface{}) ([]models.AgentInfo, error) {
	agents := make([]models.AgentInfo, 0, len(rows))
	for _, row := range rows {
		id, err := stringCol(operation, row, "id")
		if err != nil {
			return nil, err
		}
		agents = append(agents, models.AgentInfo{
			ID:          id,
			Name:        optString(row, "name"),
			Description: optString(row, "description"),
			Status:      optString(row, "status"),
			Version:     optString(row, "version"),
		})
	}
	return agents, nil
}

func mapParamSpecs(operation string, rows []map[string]interface{}) ([]models.ParamSpec, error) {
	params := make([]models.ParamSpec, 0, len(rows))
	for _, row := range rows {
		key, err := stringCol(operation, row, "key")
		if err != nil {
			return nil, err
		}
		required, err := boolCol(operation, row, "required")
		if err != nil {
			return nil, err
		}
		params = append(params, models.ParamSpec{
			Key:         key,
			Name:        optString(row, "name"),
			Description: optString(row, "description"),
			Type:        optString(row, "type"),
			Required:    required,
			Enum:        stringList(row, "enum"),
			Example:     optString(row, "example"),
		})
	}
	return params, nil
}

func mapActionTopics(rows []map[string]interface{}) models.ActionTopics {
	if len(rows) == 0 {
		return models.ActionTopics{}
	}
	return models.ActionTopics{
		RequestTopic:  optString(rows[0], "request_topic"),
		ResponseTopic: optString(rows[0], "response_topic"),
	}
}

func mapAgentActionCounts(operation string, rows []map[string]interface{}) ([]models.AgentActionCount, error) {
	counts := make([]models.AgentActionCount, 0, len(rows))
	for _, row := range rows {
		agentID, err := stringCol(operation, row, "agent_id")
		if err != nil {
			return nil, err
		}
		count, err := intCol(operation, row, "action_count")
		if err != nil {
			return nil, err
		}
		counts = append(counts, models.AgentActionCount{
			AgentID:     agentID,
			AgentName:   optString(row, "agent_name"),
			ActionCount: count,
		})
	}
	return counts, nil
}

// stringCol requires a non-null string column; anything else is a
// type-inconsistent result and surfaces as a storage error.
func stringCol(operation string, row map[string]interface{}, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", errors.NewStorageError(operation, fmt.Errorf("column %q missing or null", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.NewStorageError(operation, fmt.Errorf("column %q has type %T, want string", key, v))
	}
	return s, nil
}

func boolCol(operation string, row map[string]interface{}, key string) (bool, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewStorageError(operation, fmt.Errorf("column %q has type %T, want bool", key, v))
	}
	return b, nil
}

func intCol(operation string, row map[string]interface{}, key string) (int64, error) {
	switch v := row[key].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, errors.NewStorageError(operation, fmt.Errorf("column %q has type %T, want integer", key, row[key]))
	}
}

// optString tolerates null columns; a null is the empty string.
func optString(row map[string]interface{}, key string) string {
	if s, ok := row[key].(string); ok {
		return s
	}
	return ""
}

// stringList converts the driver's []interface{} representation of a list
// property. A null or absent column is nil.
func stringList(row map[string]interface{}, key string) []string {
	raw, ok := row[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
