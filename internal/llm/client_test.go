// internal/llm/client_test.go
package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
)

// scriptedProvider returns queued responses, then errors.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	idx := p.calls
	p.calls++
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	if idx < len(p.responses) {
		return &Response{Content: p.responses[idx], Model: "scripted"}, nil
	}
	return &Response{Content: "", Model: "scripted"}, nil
}

func (p *scriptedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:   "scripted",
		Model:      "scripted",
		Timeout:    5000,
		MaxRetries: 1,
	}
}

func TestClient_Chat_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(redisClient, time.Minute)

	provider := &scriptedProvider{responses: []string{`{"candidates": []}`}}
	client := NewClient(provider, cache, testLLMConfig(), logger.NewNoOpLogger(), nil)

	req := ChatRequest{
		Task:          "intent_parse",
		PromptVersion: "v1",
		Messages:      []Message{{Role: "user", Content: "幫我找 A12 攤位在哪裡"}},
	}

	first, err := client.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"candidates": []}`, first)
	assert.Equal(t, 1, provider.calls)

	// Second call is served from Redis, not the provider.
	second, err := client.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls)
}

func TestClient_Chat_RetriesTransientError(t *testing.T) {
	provider := &scriptedProvider{
		errs:      []error{errorString("status 429: rate limit"), nil},
		responses: []string{"", `{"candidates": []}`},
	}
	client := NewClient(provider, nil, testLLMConfig(), logger.NewNoOpLogger(), nil)

	out, err := client.Chat(context.Background(), ChatRequest{
		Task:     "intent_parse",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"candidates": []}`, out)
	assert.Equal(t, 2, provider.calls)
}

func TestClient_Chat_PermanentErrorSurfacesAsLLMFailure(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{errorString("status 401: invalid api key")},
	}
	client := NewClient(provider, nil, testLLMConfig(), logger.NewNoOpLogger(), nil)

	_, err := client.Chat(context.Background(), ChatRequest{
		Task:     "intent_parse",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeLLMCallFailed, stdErr.Code)
	assert.Equal(t, 1, provider.calls)
}

type errorString string

func (e errorString) Error() string { return string(e) }
