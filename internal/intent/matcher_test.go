// internal/intent/matcher_test.go
package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/kg"
	"gias-workers/internal/models"
)

type fakeStore struct {
	hits        []kg.ActionHit
	params      map[string][]models.ParamSpec
	ensuredDims int
	searches    []float64 // min scores of each search call
}

func (f *fakeStore) EnsureActionDescIndex(ctx context.Context, dimensions int) error {
	f.ensuredDims = dimensions
	return nil
}

func (f *fakeStore) SearchActionsByVector(ctx context.Context, vector []float64, topK int, minScore float64) ([]kg.ActionHit, error) {
	f.searches = append(f.searches, minScore)
	if minScore > 0 && len(f.hits) > 0 && f.hits[0].Score < minScore {
		return nil, nil
	}
	return f.hits, nil
}

func (f *fakeStore) GetActionParams(ctx context.Context, actionName string) ([]models.ParamSpec, error) {
	return f.params[actionName], nil
}

type fakeEmbedder struct{ dims int }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return make([]float64, f.dims), nil
}

func testIntentConfig() config.IntentConfig {
	return config.IntentConfig{
		VectorTopK:     10,
		VectorMinScore: 0.75,
		MinParamScore:  0.35,
		MinFinalScore:  0.55,
	}
}

func locateParams() []models.ParamSpec {
	return []models.ParamSpec{
		{Key: "target_name", Type: "string", Required: true},
		{Key: "target_type", Type: "enum", Required: false, Enum: []string{"exhibit_zone", "booth", "exhibit"}},
	}
}

func newTestMatcher(store *fakeStore) *Matcher {
	return NewMatcher(store, &fakeEmbedder{dims: 8}, ExpoProfile(true), testIntentConfig(), logger.NewNoOpLogger())
}

func TestMatchActions_NoSlots_VectorAndAliasOnly(t *testing.T) {
	store := &fakeStore{hits: []kg.ActionHit{
		{Name: "LocateExhibit", Description: "找位置", Score: 0.9},
		{Name: "AnswerFAQ", Description: "回答問題", Score: 0.8},
	}}
	matcher := newTestMatcher(store)

	matches, err := matcher.MatchActions(context.Background(), "A12 攤位在哪裡", nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, 8, store.ensuredDims)
	assert.Equal(t, "LocateExhibit", matches[0].Name)
	// "攤位" and "位置" both hit LocateExhibit aliases.
	assert.InDelta(t, 0.5, matches[0].AliasScore, 1e-9)
	assert.InDelta(t, 0.85*0.9+0.15*0.5, matches[0].BaseScore, 1e-9)
	// Without slots there is no gate; low final scores still pass.
	assert.True(t, matches[0].FinalScore > matches[1].FinalScore)
}

func TestMatchActions_RequiredSlotMissingGatesAction(t *testing.T) {
	store := &fakeStore{
		hits:   []kg.ActionHit{{Name: "LocateExhibit", Score: 0.95}},
		params: map[string][]models.ParamSpec{"LocateExhibit": locateParams()},
	}
	matcher := newTestMatcher(store)

	matches, err := matcher.MatchActions(context.Background(), "找攤位", map[string]string{
		"target_type": "攤位",
		"target_name": "",
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchActions_SlotsScoredAndBound(t *testing.T) {
	store := &fakeStore{
		hits:   []kg.ActionHit{{Name: "LocateExhibit", Score: 0.95}},
		params: map[string][]models.ParamSpec{"LocateExhibit": locateParams()},
	}
	matcher := newTestMatcher(store)

	matches, err := matcher.MatchActions(context.Background(), "A12 攤位在哪裡", map[string]string{
		"target_name": "A12",
		"target_type": "攤位",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.True(t, m.Fillable)
	// required string 0.8 at weight 2, enum match 1.0 at weight 1.
	assert.InDelta(t, (2*0.8+1*1.0)/3, m.ParamScore, 1e-9)
	assert.Equal(t, "A12", m.Bindings["target_name"])
	assert.Equal(t, "booth", m.Bindings["target_type"])
}

func TestMatchActions_UnderscoreSlotsIgnored(t *testing.T) {
	store := &fakeStore{
		hits:   []kg.ActionHit{{Name: "LocateExhibit", Score: 0.95}},
		params: map[string][]models.ParamSpec{"LocateExhibit": locateParams()},
	}
	matcher := newTestMatcher(store)

	// Only metadata slots: matcher behaves as if no slots were given,
	// so the required-param gate stays off.
	matches, err := matcher.MatchActions(context.Background(), "找攤位", map[string]string{
		"_trace_id": "abc123",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].ParamScore)
}

func TestMatchActions_FallbackSearchWhenNothingAboveThreshold(t *testing.T) {
	store := &fakeStore{hits: []kg.ActionHit{{Name: "AnswerFAQ", Score: 0.4}}}
	matcher := newTestMatcher(store)

	matches, err := matcher.MatchActions(context.Background(), "今天天氣如何", nil)
	require.NoError(t, err)

	// First pass at the configured threshold found nothing, second pass
	// ran unthresholded.
	require.Len(t, store.searches, 2)
	assert.Equal(t, 0.75, store.searches[0])
	assert.Equal(t, 0.0, store.searches[1])
	require.Len(t, matches, 1)
	assert.Equal(t, "AnswerFAQ", matches[0].Name)
}

func TestMatchActions_SlotMapAlternateFillsParam(t *testing.T) {
	store := &fakeStore{
		hits:   []kg.ActionHit{{Name: "LocateExhibit", Score: 0.95}},
		params: map[string][]models.ParamSpec{"LocateExhibit": locateParams()},
	}
	matcher := newTestMatcher(store)

	// booth_id is a configured alternate for target_name.
	matches, err := matcher.MatchActions(context.Background(), "找攤位", map[string]string{
		"booth_id": "B07",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "B07", matches[0].Bindings["target_name"])
}
