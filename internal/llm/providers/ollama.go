// internal/llm/providers/ollama.go
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

const defaultOllamaBaseURL = "http://localhost:11434"

// Ollama talks to a local Ollama server.
type Ollama struct {
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
}

// NewOllama creates an Ollama provider. An empty baseURL selects the local
// default.
func NewOllama(baseURL, model, embedModel string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &Ollama{
		baseURL:    baseURL,
		model:      model,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *Ollama) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
}

func (p *Ollama) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	body, err := json.Marshal(ollamaChatRequest{Model: p.model, Messages: messages, Stream: false})
	if err != nil {
		return nil, err
	}

	raw, err := p.post(ctx, "/api/chat", body)
	if err != nil {
		return nil, err
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewLLMCallFailedError(p.Name(), fmt.Errorf("malformed chat response: %w", err))
	}

	return &llm.Response{
		Content: parsed.Message.Content,
		Model:   parsed.Model,
	}, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *Ollama) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.embedModel, Prompt: text})
	if err != nil {
		return nil, err
	}

	raw, err := p.post(ctx, "/api/embeddings", body)
	if err != nil {
		return nil, errors.NewEmbeddingFailedError(err)
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewEmbeddingFailedError(fmt.Errorf("malformed embedding response: %w", err))
	}
	if len(parsed.Embedding) == 0 {
		return nil, errors.NewEmbeddingFailedError(fmt.Errorf("embedding response is empty"))
	}
	return parsed.Embedding, nil
}

func (p *Ollama) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
