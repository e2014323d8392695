package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("graph store", "graph store"))
	assert.Equal(t, 1.0, Similarity("learning machine", "machine learning"), "token order is ignored")
	assert.InDelta(t, 0.5714, Similarity("kitten", "sitting"), 0.001)
	assert.InDelta(t, 0.9474, Similarity("kubernetes cluster", "kubernetes clusters"), 0.001)
	assert.Less(t, Similarity("machine learning", "machine learning model"), DefaultThreshold)
}

func TestFuzzyComparable(t *testing.T) {
	assert.True(t, fuzzyComparable("graph db", "graph dbs"))
	assert.False(t, fuzzyComparable("ai", "al"), "short strings stay exact-match only")
	assert.False(t, fuzzyComparable("node 10", "node 11"))
	assert.False(t, fuzzyComparable("python3", "python2"))
	assert.True(t, fuzzyComparable("web 2 0", "the web 2 0"))
}

func TestNormalizeRelation(t *testing.T) {
	cases := map[string]string{
		"Depends On": "depends_on",
		"is-a":       "is_a",
		"  IS  ":     "is",
		"part of.":   "part_of",
		"!!":         "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeRelation(raw), "raw=%q", raw)
	}
	assert.Equal(t, "is a", HumanizeRelation("is_a"))
}
