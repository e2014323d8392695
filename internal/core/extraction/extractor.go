package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/common"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/llm"
	"github.com/laithdarras/universal-kg/internal/logger"
)

// Confidence given to LLM triples that come back without one.
const defaultLLMConfidence = 0.5

// Extractor turns a chunk of text into triples stamped with sourceID.
// Implementations never fail: problems are logged and an empty list returned.
type Extractor interface {
	Extract(ctx context.Context, text, sourceID string) []model.Triple
}

// New returns the LLM extractor when a client is configured and the rule
// extractor otherwise.
func New(client llm.LLMClient, cfg config.ExtractionConfig, log *logger.Logger) Extractor {
	if client == nil {
		return NewRuleExtractor(cfg)
	}
	return NewLLMExtractor(client, cfg, log)
}

// LLMExtractor asks an LLM for triples and falls back to rules when the call
// or the JSON in its answer fails.
type LLMExtractor struct {
	LLM      llm.LLMClient
	Config   config.ExtractionConfig
	Filter   *Filter
	Fallback Extractor
	Log      *logger.Logger
}

func NewLLMExtractor(client llm.LLMClient, cfg config.ExtractionConfig, log *logger.Logger) *LLMExtractor {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Prompts.Triples == "" {
		cfg.Prompts.Triples = config.DefaultTriplePrompt
	}
	return &LLMExtractor{
		LLM:      client,
		Config:   cfg,
		Filter:   NewFilter(cfg),
		Fallback: NewRuleExtractor(cfg),
		Log:      log.With("component", "extraction"),
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, text, sourceID string) []model.Triple {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	response, err := e.LLM.Generate(ctx, e.prompt(text))
	if err != nil {
		e.Log.Warn("llm extraction failed, falling back to rules", "source", sourceID, "error", err)
		return e.Fallback.Extract(ctx, text, sourceID)
	}

	result, err := common.ParseJSON[model.ExtractedTriples](response)
	if err != nil {
		e.Log.Warn("llm returned unusable JSON, falling back to rules", "source", sourceID, "error", err)
		return e.Fallback.Extract(ctx, text, sourceID)
	}

	for i := range result.Triples {
		result.Triples[i].Source = sourceID
		if result.Triples[i].Confidence == 0 {
			result.Triples[i].Confidence = defaultLLMConfidence
		}
	}
	kept := e.Filter.Apply(result.Triples)
	if dropped := len(result.Triples) - len(kept); dropped > 0 {
		e.Log.Debug("filtered extracted triples", "source", sourceID, "kept", len(kept), "dropped", dropped)
	}
	return kept
}

func (e *LLMExtractor) prompt(text string) string {
	text = truncateRunes(text, e.Config.MaxChars)
	tmpl := e.Config.Prompts.Triples
	if strings.Contains(tmpl, "%d") {
		return fmt.Sprintf(tmpl, e.Filter.MaxTriples, text)
	}
	return fmt.Sprintf(tmpl, text)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
