package search

import (
	"strings"
	"unicode/utf8"

	"github.com/laithdarras/universal-kg/internal/core/dedupe"
)

// Stopwords never count as question keywords.
var Stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "what": true, "when": true, "where": true,
	"who": true, "why": true, "how": true,
}

// Keywords lowercases the question, splits it on non-word runes and drops
// stopwords and tokens shorter than minLen. Order of first appearance is kept.
func Keywords(question string, minLen int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.Fields(dedupe.Normalize(question)) {
		if seen[tok] || Stopwords[tok] || utf8.RuneCountInString(tok) < minLen {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
