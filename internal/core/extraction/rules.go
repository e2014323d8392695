package extraction

import (
	"context"
	"regexp"
	"strings"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/model"
)

const ruleConfidence = 0.7

// Entities longer than this many words are clause fragments, not entities.
const maxEntityWords = 6

type rule struct {
	pattern  *regexp.Regexp
	relation string
}

// Order matters: "is part of" must be tried before "is a".
var rules = []rule{
	{regexp.MustCompile(`(?i)^(.+?)\s+is\s+(?:a\s+)?part\s+of\s+(.+)$`), "part_of"},
	{regexp.MustCompile(`(?i)^(.+?)\s+is\s+(?:a|an)\s+(.+)$`), "is_a"},
	{regexp.MustCompile(`(?i)^(.+?)\s+depends\s+on\s+(.+)$`), "depends_on"},
	{regexp.MustCompile(`(?i)^(.+?)\s+uses\s+(.+)$`), "uses"},
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?\n]+`)
	clauseSplit   = regexp.MustCompile(`[,;:()]`)
)

// RuleExtractor finds triples with a handful of surface patterns. It is the
// extractor used when no LLM is configured and the fallback when one fails.
type RuleExtractor struct {
	Filter *Filter
}

func NewRuleExtractor(cfg config.ExtractionConfig) *RuleExtractor {
	return &RuleExtractor{Filter: NewFilter(cfg)}
}

func (r *RuleExtractor) Extract(ctx context.Context, text, sourceID string) []model.Triple {
	var triples []model.Triple
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for _, rl := range rules {
			m := rl.pattern.FindStringSubmatch(sentence)
			if m == nil {
				continue
			}
			subject := lastClause(m[1])
			object := firstClause(m[2])
			if !plausibleEntity(subject) || !plausibleEntity(object) {
				break
			}
			triples = append(triples, model.Triple{
				Subject:    subject,
				Relation:   rl.relation,
				Object:     object,
				Confidence: ruleConfidence,
				Source:     sourceID,
			})
			break
		}
	}
	return r.Filter.Apply(triples)
}

func firstClause(s string) string {
	return strings.TrimSpace(clauseSplit.Split(s, 2)[0])
}

func lastClause(s string) string {
	parts := clauseSplit.Split(s, -1)
	return strings.TrimSpace(parts[len(parts)-1])
}

func plausibleEntity(s string) bool {
	n := len(strings.Fields(s))
	return n > 0 && n <= maxEntityWords
}
