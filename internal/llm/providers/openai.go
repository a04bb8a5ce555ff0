// Package providers holds the concrete LLM backends. Each provider is a
// thin HTTP binding; retry and caching live one level up in the llm package.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gias-workers/internal/common/errors"
	"gias-workers/internal/llm"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to the OpenAI chat-completions and embeddings endpoints, or
// any compatible server when BaseURL points elsewhere.
type OpenAI struct {
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider. An empty baseURL selects
// the official endpoint.
func NewOpenAI(baseURL, apiKey, model, embedModel string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *OpenAI) Name() string { return "openai" }

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

func (p *OpenAI) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	body, err := json.Marshal(openAIChatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	raw, err := p.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewLLMCallFailedError(p.Name(), fmt.Errorf("malformed completion response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.NewLLMCallFailedError(p.Name(), fmt.Errorf("completion response has no choices"))
	}

	return &llm.Response{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage:   parsed.Usage,
	}, nil
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(openAIEmbedRequest{Model: p.embedModel, Input: text})
	if err != nil {
		return nil, err
	}

	raw, err := p.post(ctx, "/embeddings", body)
	if err != nil {
		return nil, errors.NewEmbeddingFailedError(err)
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewEmbeddingFailedError(fmt.Errorf("malformed embedding response: %w", err))
	}
	if len(parsed.Data) == 0 {
		return nil, errors.NewEmbeddingFailedError(fmt.Errorf("embedding response has no data"))
	}
	return parsed.Data[0].Embedding, nil
}

func (p *OpenAI) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
