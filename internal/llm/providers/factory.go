// internal/llm/providers/factory.go
package providers

import (
	"fmt"
	"os"
	"time"

	"gias-workers/internal/common/config"
	"gias-workers/internal/llm"
)

// FromConfig builds the provider named in the LLM configuration.
func FromConfig(cfg config.LLMConfig) (llm.Provider, error) {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond

	switch cfg.Provider {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAI(cfg.BaseURL, apiKey, cfg.Model, cfg.EmbedModel, timeout), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model, cfg.EmbedModel, timeout), nil
	case "mock":
		return NewMock(`{"candidates": []}`), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
