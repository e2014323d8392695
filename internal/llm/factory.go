package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/laithdarras/universal-kg/internal/config"
)

// NewClient builds the client for cfg.Provider. An empty provider or "none"
// returns a nil client: extraction then runs on rules only.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	gen := Generation{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	switch provider {
	case "", "none":
		return nil, nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, gen), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, gen)

	case "claude", "anthropic":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, gen), nil

	case "ollama":
		// Ollama serves an OpenAI-compatible API under /v1 and ignores the key.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, baseURL, gen), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// Generation holds sampling settings shared by every provider.
type Generation struct {
	Temperature float32
	MaxTokens   int
}

func (g Generation) maxTokens() int {
	if g.MaxTokens <= 0 {
		return 1000
	}
	return g.MaxTokens
}
