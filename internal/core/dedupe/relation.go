package dedupe

import (
	"regexp"
	"strings"
)

var relationSep = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeRelation lowercases a relation label and joins its words with
// underscores: "Depends On" and "depends-on" both become "depends_on".
// Relations are never fuzzy-merged.
func NormalizeRelation(raw string) string {
	s := relationSep.ReplaceAllString(strings.ToLower(raw), "_")
	return strings.Trim(s, "_")
}

// HumanizeRelation turns a normalized relation back into words for answer text.
func HumanizeRelation(relation string) string {
	return strings.ReplaceAll(relation, "_", " ")
}
