package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/common"
	"github.com/laithdarras/universal-kg/internal/core/dedupe"
	"github.com/laithdarras/universal-kg/internal/llm"
)

// ChunkSize bounds how many facts go into one community prompt.
const ChunkSize = 20

// Fact is one edge rendered with its endpoint labels.
type Fact struct {
	Subject  string
	Relation string
	Object   string
}

// Sentence renders a fact as "<subject> <relation words> <object>."
func (f Fact) Sentence() string {
	return fmt.Sprintf("%s %s %s.", f.Subject, dedupe.HumanizeRelation(f.Relation), f.Object)
}

// Summarizer turns graph facts into text. Answers are always templated; the
// LLM, when set, is only used to describe communities.
type Summarizer struct {
	LLM       llm.LLMClient
	Prompts   config.SummaryPrompts
	MaxLabels int
}

func NewSummarizer(llmClient llm.LLMClient, prompts config.SummaryPrompts) *Summarizer {
	return &Summarizer{
		LLM:       llmClient,
		Prompts:   prompts,
		MaxLabels: ChunkSize,
	}
}

// Answer joins one sentence per fact in the given order.
func (s *Summarizer) Answer(facts []Fact) string {
	sentences := make([]string, 0, len(facts))
	for _, f := range facts {
		sentences = append(sentences, f.Sentence())
	}
	return strings.Join(sentences, " ")
}

// Entities is used when matching nodes carry no relationships.
func (s *Summarizer) Entities(labels []string) string {
	return fmt.Sprintf("Related entities: %s. No relationships between them are known yet.", s.listLabels(labels))
}

// CommunityTemplate describes a cluster by its members without an LLM.
func (s *Summarizer) CommunityTemplate(labels []string) string {
	return fmt.Sprintf("%d related entities: %s.", len(labels), s.listLabels(labels))
}

func (s *Summarizer) listLabels(labels []string) string {
	limit := s.MaxLabels
	if limit <= 0 || limit > len(labels) {
		limit = len(labels)
	}
	listed := strings.Join(labels[:limit], ", ")
	if rest := len(labels) - limit; rest > 0 {
		listed += fmt.Sprintf(" and %d more", rest)
	}
	return listed
}

// DescribeCommunity summarizes a cluster. Without an LLM or a prompt it falls
// back to CommunityTemplate. Large fact lists are summarized in chunks and the
// partial summaries reduced recursively.
func (s *Summarizer) DescribeCommunity(ctx context.Context, labels []string, facts []Fact) (string, error) {
	if s.LLM == nil || s.Prompts.Communities == "" || len(facts) == 0 {
		return s.CommunityTemplate(labels), nil
	}
	return s.summarizeFacts(ctx, factLines(facts))
}

func (s *Summarizer) summarizeFacts(ctx context.Context, lines []string) (string, error) {
	if len(lines) <= ChunkSize {
		prompt := fmt.Sprintf(s.Prompts.Communities, strings.Join(lines, "\n"))
		response, err := s.LLM.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("failed to generate community summary: %w", err)
		}
		result, err := common.ParseJSON[communitySummary](response)
		if err == nil && result.Summary != "" {
			return result.Summary, nil
		}
		return strings.TrimSpace(response), nil
	}

	var partials []string
	for i := 0; i < len(lines); i += ChunkSize {
		end := i + ChunkSize
		if end > len(lines) {
			end = len(lines)
		}
		part, err := s.summarizeFacts(ctx, lines[i:end])
		if err != nil {
			return "", err
		}
		partials = append(partials, "- "+part)
	}
	return s.summarizeFacts(ctx, partials)
}

type communitySummary struct {
	Summary string `json:"summary"`
}

func factLines(facts []Fact) []string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, "- "+f.Sentence())
	}
	return lines
}
