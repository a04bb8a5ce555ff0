// internal/llm/provider.go
package llm

import "context"

// Provider is a chat-completion and embedding backend. Concrete bindings
// live in the providers subpackage; callers construct one there and hand it
// to NewClient.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message) (*Response, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}
