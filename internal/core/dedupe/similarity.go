package dedupe

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity at or above which an unseen entity is
// merged into an existing identity.
const DefaultThreshold = 0.85

// Strings shorter than this never take part in fuzzy matching.
const minFuzzyRunes = 4

// Similarity scores two normalized strings in [0,1] as the larger of the
// token-set Jaccard index and the edit-distance ratio.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return math.Max(tokenSetRatio(a, b), editRatio(a, b))
}

func editRatio(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

// fuzzyComparable guards against merges the score alone would allow:
// short strings, and strings that differ only in a number ("node 10" / "node 11").
func fuzzyComparable(a, b string) bool {
	if utf8.RuneCountInString(a) < minFuzzyRunes || utf8.RuneCountInString(b) < minFuzzyRunes {
		return false
	}
	return numericSignature(a) == numericSignature(b)
}

func numericSignature(s string) string {
	var nums []string
	for _, f := range strings.Fields(s) {
		if strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			nums = append(nums, strings.Map(keepDigit, f))
		}
	}
	sort.Strings(nums)
	return strings.Join(nums, " ")
}

func keepDigit(r rune) rune {
	if unicode.IsDigit(r) {
		return r
	}
	return -1
}
