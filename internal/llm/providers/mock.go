// internal/llm/providers/mock.go
package providers

import (
	"context"
	"sync"

	"gias-workers/internal/llm"
)

// Mock is a scriptable in-memory provider for tests and offline runs.
// Responses are consumed in order; when the queue is empty the fallback
// content is returned.
type Mock struct {
	mu        sync.Mutex
	responses []string
	fallback  string
	embedDim  int
	calls     []llm.Message
}

// NewMock creates a mock provider returning fallback when no queued
// response remains.
func NewMock(fallback string) *Mock {
	return &Mock{fallback: fallback, embedDim: 8}
}

func (p *Mock) Name() string { return "mock" }

// Queue appends scripted chat responses.
func (p *Mock) Queue(responses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, responses...)
}

// Calls returns every message received so far.
func (p *Mock) Calls() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Message, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Mock) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, messages...)

	content := p.fallback
	if len(p.responses) > 0 {
		content = p.responses[0]
		p.responses = p.responses[1:]
	}
	return &llm.Response{Content: content, Model: "mock"}, nil
}

// Embed returns a deterministic vector derived from the text so equal
// inputs always embed equally.
func (p *Mock) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, p.embedDim)
	for i, r := range text {
		vec[i%p.embedDim] += float64(r%97) / 97.0
	}
	return vec, nil
}
