// internal/llm/client.go
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
)

// Client fronts a provider with transient retry, response caching, and call
// metrics. It is safe for concurrent use.
type Client struct {
	provider Provider
	cache    *Cache
	cfg      config.LLMConfig
	logger   logger.Logger
	obs      *observability.Observability
}

// ChatRequest is one completion request. Task and PromptVersion scope the
// cache key; two tasks never share cached completions.
type ChatRequest struct {
	Task          string
	PromptVersion string
	Messages      []Message
}

// NewClient creates an LLM client. cache and obs may be nil.
func NewClient(provider Provider, cache *Cache, cfg config.LLMConfig, log logger.Logger, obs *observability.Observability) *Client {
	return &Client{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "llm", "provider": provider.Name()}),
		obs:      obs,
	}
}

// Provider returns the backend name, for logging and error context.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Chat runs one completion, consulting the cache first. Transient provider
// failures are retried with backoff; everything else surfaces immediately.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	correlationID := uuid.New().String()
	log := c.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"task":           req.Task,
	})

	var cacheKey string
	if c.cache != nil {
		cacheKey = c.cache.Key(req.Task, req.PromptVersion, flatten(req.Messages), c.cfg.Model)
		if cached, ok := c.cache.Get(ctx, cacheKey); ok {
			log.Debug("cache hit", nil)
			c.record(ctx, "cached", 0)
			return cached, nil
		}
	}

	start := time.Now()
	resp, err := callWithRetry(ctx, c.cfg.MaxRetries, time.Second, func(ctx context.Context) (*Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
		defer cancel()
		return c.provider.Chat(callCtx, req.Messages)
	})
	elapsed := time.Since(start)

	if err != nil {
		c.record(ctx, "error", elapsed)
		log.WithError(err).Error("completion failed", map[string]interface{}{
			"elapsed_ms": elapsed.Milliseconds(),
		})
		if ctx.Err() == context.DeadlineExceeded || strings.Contains(strings.ToLower(err.Error()), "deadline exceeded") {
			return "", errors.NewLLMTimeoutError(c.provider.Name())
		}
		return "", errors.NewLLMCallFailedError(c.provider.Name(), err)
	}

	c.record(ctx, "success", elapsed)
	log.Debug("completion finished", map[string]interface{}{
		"elapsed_ms":   elapsed.Milliseconds(),
		"total_tokens": resp.Usage.TotalTokens,
	})

	if c.cache != nil {
		c.cache.Put(ctx, cacheKey, resp.Content)
	}
	return resp.Content, nil
}

// Embed returns the embedding vector for text, with the same retry policy
// as Chat.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	vec, err := callWithRetry(ctx, c.cfg.MaxRetries, time.Second, func(ctx context.Context) ([]float64, error) {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
		defer cancel()
		return c.provider.Embed(callCtx, text)
	})
	if err != nil {
		c.record(ctx, "embed_error", time.Since(start))
		return nil, errors.NewEmbeddingFailedError(err)
	}
	c.record(ctx, "embed_success", time.Since(start))
	return vec, nil
}

func (c *Client) record(ctx context.Context, status string, elapsed time.Duration) {
	if c.obs != nil {
		c.obs.RecordLLMCall(ctx, c.provider.Name(), status, elapsed)
	}
}

func flatten(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
