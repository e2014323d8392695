package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/dedupe"
	"github.com/laithdarras/universal-kg/internal/core/model"
)

var junkEntities = map[string]bool{
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"they": true, "them": true, "he": true, "she": true, "we": true, "you": true, "i": true,
	"which": true, "who": true, "there": true, "here": true,
	"something": true, "anything": true, "thing": true, "things": true, "one": true,
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
}

// Filter drops low-confidence triples and triples whose entities are
// pronouns, stopwords, single characters or bare numbers.
type Filter struct {
	MinConfidence float64
	MaxTriples    int
}

func NewFilter(cfg config.ExtractionConfig) *Filter {
	return &Filter{MinConfidence: cfg.MinConfidence, MaxTriples: cfg.MaxTriples}
}

func (f *Filter) Apply(triples []model.Triple) []model.Triple {
	out := make([]model.Triple, 0, len(triples))
	for _, t := range triples {
		if f.MaxTriples > 0 && len(out) >= f.MaxTriples {
			break
		}
		if t.Confidence < f.MinConfidence || strings.TrimSpace(t.Relation) == "" {
			continue
		}
		if IsJunkEntity(t.Subject) || IsJunkEntity(t.Object) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsJunkEntity reports whether s cannot name an entity.
func IsJunkEntity(s string) bool {
	n := dedupe.Normalize(s)
	if utf8.RuneCountInString(n) < 2 || junkEntities[n] {
		return true
	}
	return strings.IndexFunc(strings.ReplaceAll(n, " ", ""), func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
