// internal/kg/actionstore.go
package kg

import (
	"context"
	"fmt"

	"gias-workers/internal/common/errors"
	"gias-workers/internal/models"
)

// ActionDescIndex is the vector index over Action.description_embedding.
const ActionDescIndex = "action_desc_vec"

// VectorStore is the graph access the action store needs on top of plain
// reads: vector index management and approximate nearest-neighbor lookup.
type VectorStore interface {
	Runner
	EnsureVectorIndex(ctx context.Context, indexName, label, prop string, dimensions int) error
	VectorQueryNodes(ctx context.Context, indexName string, vector []float64, topK int, minScore float64) ([]map[string]interface{}, error)
}

// ActionHit is one vector search result over action descriptions.
type ActionHit struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// ActionStore serves the matcher: semantic action lookup plus parameter
// specs for the hits it returns.
type ActionStore struct {
	store   VectorStore
	catalog *Catalog
}

// NewActionStore creates an action store over the given vector-capable graph
// client.
func NewActionStore(store VectorStore) *ActionStore {
	return &ActionStore{
		store:   store,
		catalog: NewCatalog(store),
	}
}

// EnsureActionDescIndex makes sure the description-embedding index exists
// with the given dimensionality before any vector search runs.
func (s *ActionStore) EnsureActionDescIndex(ctx context.Context, dimensions int) error {
	return s.store.EnsureVectorIndex(ctx, ActionDescIndex, "Action", "description_embedding", dimensions)
}

// SearchActionsByVector returns actions whose description embedding is close
// to the query vector, best first. Results below minScore are dropped by the
// index query itself.
func (s *ActionStore) SearchActionsByVector(ctx context.Context, vector []float64, topK int, minScore float64) ([]ActionHit, error) {
	rows, err := s.store.VectorQueryNodes(ctx, ActionDescIndex, vector, topK, minScore)
	if err != nil {
		return nil, err
	}

	hits := make([]ActionHit, 0, len(rows))
	for _, row := range rows {
		name, ok := row["name"].(string)
		if !ok {
			return nil, errors.NewStorageError("vector_search", fmt.Errorf("hit has no name column"))
		}
		score, ok := row["score"].(float64)
		if !ok {
			return nil, errors.NewStorageError("vector_search", fmt.Errorf("hit %q has no numeric score", name))
		}
		hits = append(hits, ActionHit{
			Name:        name,
			Description: optString(row, "description"),
			Score:       score,
		})
	}
	return hits, nil
}

// GetActionParams returns the declared parameters of an action, required
// first.
func (s *ActionStore) GetActionParams(ctx context.Context, actionName string) ([]models.ParamSpec, error) {
	return s.catalog.ParamsOfAction(ctx, actionName)
}
