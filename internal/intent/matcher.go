// internal/intent/matcher.go
package intent

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/kg"
	"gias-workers/internal/models"
)

const (
	aliasHitWeight = 0.25
	aliasWeight    = 0.15
	baseWeight     = 0.4
	paramWeight    = 0.6
)

// ActionSource is the graph-backed lookup the matcher needs.
type ActionSource interface {
	EnsureActionDescIndex(ctx context.Context, dimensions int) error
	SearchActionsByVector(ctx context.Context, vector []float64, topK int, minScore float64) ([]kg.ActionHit, error)
	GetActionParams(ctx context.Context, actionName string) ([]models.ParamSpec, error)
}

// Embedder turns text into a vector. *llm.Client satisfies this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ActionMatch is one scored match with its parameter bindings.
type ActionMatch struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	VectorScore float64           `json:"vector_score"`
	AliasScore  float64           `json:"alias_score"`
	BaseScore   float64           `json:"base_score"`
	ParamScore  float64           `json:"param_score"`
	FinalScore  float64           `json:"final_score"`
	Fillable    bool              `json:"fillable"`
	Bindings    map[string]string `json:"bindings,omitempty"`
}

// Matcher ranks catalog actions against a sub-intention: vector retrieval
// over action descriptions, alias boosting from the domain profile, and,
// when slots are available, required-parameter fillability gating plus
// parameter scoring.
type Matcher struct {
	store    ActionSource
	embedder Embedder
	profile  *DomainProfile
	cfg      config.IntentConfig
	logger   logger.Logger
}

// NewMatcher creates a matcher with thresholds from the intent config.
func NewMatcher(store ActionSource, embedder Embedder, profile *DomainProfile, cfg config.IntentConfig, log logger.Logger) *Matcher {
	return &Matcher{
		store:    store,
		embedder: embedder,
		profile:  profile,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

// MatchActions returns actions able to serve the intention, best first.
// Slots with keys starting with underscore are trace metadata and ignored.
// With no vector hit above the threshold the search falls back to an
// unthresholded pass, so the caller always sees the nearest capability.
func (m *Matcher) MatchActions(ctx context.Context, intention string, slots map[string]string) ([]ActionMatch, error) {
	normIntent := m.profile.Normalize(intention)
	m.logger.Debug("matching actions", map[string]interface{}{"intention": normIntent})

	effectiveSlots := make(map[string]string, len(slots))
	for k, v := range slots {
		if !strings.HasPrefix(k, "_") {
			effectiveSlots[k] = v
		}
	}
	useSlots := len(effectiveSlots) > 0

	vector, err := m.embedder.Embed(ctx, normIntent)
	if err != nil {
		return nil, err
	}

	if err := m.store.EnsureActionDescIndex(ctx, len(vector)); err != nil {
		return nil, err
	}

	hits, err := m.store.SearchActionsByVector(ctx, vector, m.cfg.VectorTopK, m.cfg.VectorMinScore)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		hits, err = m.store.SearchActionsByVector(ctx, vector, m.cfg.VectorTopK, 0)
		if err != nil {
			return nil, err
		}
	}

	matches := make([]ActionMatch, 0, len(hits))
	for _, hit := range hits {
		aliasScore := m.aliasScore(hit.Name, normIntent)
		baseScore := (1.0-aliasWeight)*hit.Score + aliasWeight*aliasScore

		paramScore := 0.0
		fillable := true
		var bindings map[string]string
		haveSchema := false

		if useSlots {
			params, err := m.store.GetActionParams(ctx, hit.Name)
			if err != nil {
				m.logger.Debug("param schema unavailable", map[string]interface{}{
					"action": hit.Name,
					"error":  err.Error(),
				})
			} else if len(params) > 0 {
				haveSchema = true
				fillable, bindings, paramScore = m.scoreParams(effectiveSlots, params)
			}
		}

		finalScore := baseWeight*baseScore + paramWeight*paramScore

		// Gate only when slots and a schema both exist; a missing schema
		// must not wipe out every match.
		if useSlots && haveSchema {
			if !fillable || paramScore < m.cfg.MinParamScore || finalScore < m.cfg.MinFinalScore {
				continue
			}
		}

		matches = append(matches, ActionMatch{
			Name:        hit.Name,
			Description: hit.Description,
			VectorScore: hit.Score,
			AliasScore:  aliasScore,
			BaseScore:   baseScore,
			ParamScore:  paramScore,
			FinalScore:  finalScore,
			Fillable:    fillable,
			Bindings:    bindings,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FinalScore > matches[j].FinalScore
	})

	m.logger.Info("matched actions", map[string]interface{}{"count": len(matches)})
	return matches, nil
}

func (m *Matcher) aliasScore(actionName, normalizedText string) float64 {
	score := float64(m.profile.AliasHits(actionName, normalizedText)) * aliasHitWeight
	if score > 1.0 {
		return 1.0
	}
	return score
}

// scoreParams checks required fillability, binds slot values onto
// parameters, and scores the fit. Required parameters weigh double.
func (m *Matcher) scoreParams(slots map[string]string, params []models.ParamSpec) (bool, map[string]string, float64) {
	for _, p := range params {
		if p.Required && m.slotValue(slots, p.Key) == "" {
			return false, nil, 0
		}
	}

	bindings := make(map[string]string)
	total, totalWeight := 0.0, 0.0

	for _, p := range params {
		weight := 1.0
		if p.Required {
			weight = 2.0
		}

		value := m.slotValue(slots, p.Key)
		if value == "" {
			// Unfilled optional: no credit, no penalty.
			continue
		}

		var score float64
		switch strings.ToLower(p.Type) {
		case "enum":
			mapped := m.profile.NormalizeEnum(p.Key, value)
			if containsString(p.Enum, mapped) {
				score = 1.0
				bindings[p.Key] = mapped
			} else {
				score = 0.0
				bindings[p.Key] = value
			}
		case "string":
			score = 0.8
			bindings[p.Key] = value
		case "int", "integer", "number", "float":
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				score = 0.7
			}
			bindings[p.Key] = value
		default:
			score = 0.5
			bindings[p.Key] = value
		}

		total += weight * score
		totalWeight += weight
	}

	paramScore := 0.0
	if totalWeight > 0 {
		paramScore = total / totalWeight
	}
	return true, bindings, paramScore
}

func (m *Matcher) slotValue(slots map[string]string, paramKey string) string {
	for _, key := range m.profile.SlotCandidates(paramKey) {
		if v, ok := slots[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
