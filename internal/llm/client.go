package llm

import (
	"context"
)

// LLMClient generates a completion for a single user prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
