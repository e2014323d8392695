package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/laithdarras/universal-kg/internal/core/graph"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/core/summary"
)

// NoInformationAnswer is returned when no node matches the question.
const NoInformationAnswer = "I don't have enough information to answer this question."

type Options struct {
	// SeedLimit is K, the number of best-matching nodes expanded.
	SeedLimit int
	// EvidenceLimit is N, the number of edges cited.
	EvidenceLimit int
	MinTokenLen   int
	// RelationWeight scales keyword hits on the relation label.
	RelationWeight float64
}

func DefaultOptions() Options {
	return Options{
		SeedLimit:      5,
		EvidenceLimit:  10,
		MinTokenLen:    2,
		RelationWeight: 0.5,
	}
}

// Retriever answers questions from the neighbourhood of the nodes that best
// match the question's keywords.
type Retriever struct {
	Store      *graph.Store
	Summarizer *summary.Summarizer
	Options    Options
}

func NewRetriever(store *graph.Store, summarizer *summary.Summarizer, opts Options) *Retriever {
	defaults := DefaultOptions()
	if opts.SeedLimit <= 0 {
		opts.SeedLimit = defaults.SeedLimit
	}
	if opts.EvidenceLimit <= 0 {
		opts.EvidenceLimit = defaults.EvidenceLimit
	}
	if opts.MinTokenLen <= 0 {
		opts.MinTokenLen = defaults.MinTokenLen
	}
	if summarizer == nil {
		summarizer = &summary.Summarizer{MaxLabels: summary.ChunkSize}
	}
	return &Retriever{Store: store, Summarizer: summarizer, Options: opts}
}

type scoredEdge struct {
	edge  model.Edge
	score float64
	rank  int
}

// Answer returns a templated answer citing the evidence it was built from.
// The whole lookup runs under one read lock.
func (r *Retriever) Answer(question string) (model.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return model.Answer{}, fmt.Errorf("%w: empty question", model.ErrInvalidQuery)
	}
	keywords := Keywords(question, r.Options.MinTokenLen)

	var answer model.Answer
	r.Store.Read(func(v graph.View) {
		answer = r.answer(v, keywords)
	})
	return answer, nil
}

func (r *Retriever) answer(v graph.View, keywords []string) model.Answer {
	terms := expandTerms(v, keywords)
	if len(terms) == 0 {
		return noInformation()
	}

	scores := make(map[string]int)
	for _, term := range terms {
		for _, id := range v.Candidates(term) {
			scores[id]++
		}
	}
	if len(scores) == 0 {
		return noInformation()
	}

	seeds := make([]string, 0, len(scores))
	for id := range scores {
		seeds = append(seeds, id)
	}
	sort.Slice(seeds, func(i, j int) bool {
		if scores[seeds[i]] != scores[seeds[j]] {
			return scores[seeds[i]] > scores[seeds[j]]
		}
		return v.Rank(seeds[i]) < v.Rank(seeds[j])
	})
	if len(seeds) > r.Options.SeedLimit {
		seeds = seeds[:r.Options.SeedLimit]
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	seen := make(map[string]bool)
	var candidates []scoredEdge
	for _, seed := range seeds {
		for _, e := range v.Incident(seed) {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			score := float64(scores[e.SourceID]+scores[e.TargetID]) +
				r.Options.RelationWeight*float64(relationHits(e.Relation, termSet)) +
				e.Confidence
			candidates = append(candidates, scoredEdge{edge: e, score: score, rank: v.EdgeRank(e.ID)})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rank < candidates[j].rank
	})
	if len(candidates) > r.Options.EvidenceLimit {
		candidates = candidates[:r.Options.EvidenceLimit]
	}

	answer := model.Answer{
		CitedNodes: make([]string, 0, len(seeds)),
		CitedEdges: make([]string, 0, len(candidates)),
	}
	cited := make(map[string]bool)
	cite := func(id string) {
		if !cited[id] {
			cited[id] = true
			answer.CitedNodes = append(answer.CitedNodes, id)
		}
	}
	for _, id := range seeds {
		cite(id)
	}

	label := func(id string) string {
		n, _ := v.Node(id)
		return n.Label
	}
	facts := make([]summary.Fact, 0, len(candidates))
	for _, c := range candidates {
		cite(c.edge.SourceID)
		cite(c.edge.TargetID)
		answer.CitedEdges = append(answer.CitedEdges, c.edge.ID)
		facts = append(facts, summary.Fact{
			Subject:  label(c.edge.SourceID),
			Relation: c.edge.Relation,
			Object:   label(c.edge.TargetID),
		})
	}

	if len(facts) == 0 {
		labels := make([]string, 0, len(seeds))
		for _, id := range seeds {
			labels = append(labels, label(id))
		}
		answer.Answer = r.Summarizer.Entities(labels)
		return answer
	}
	answer.Answer = r.Summarizer.Answer(facts)
	return answer
}

// expandTerms adds the canonical words of any keyword, or adjacent keyword
// pair, that is a known alias ("ml" also searches "machine" and "learning").
func expandTerms(v graph.View, keywords []string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(words ...string) {
		for _, w := range words {
			if !seen[w] {
				seen[w] = true
				terms = append(terms, w)
			}
		}
	}
	for i, kw := range keywords {
		add(kw)
		if canonical, ok := v.Expand(kw); ok {
			add(strings.Fields(canonical)...)
		}
		if i+1 < len(keywords) {
			if canonical, ok := v.Expand(kw + " " + keywords[i+1]); ok {
				add(strings.Fields(canonical)...)
			}
		}
	}
	return terms
}

func relationHits(relation string, terms map[string]bool) int {
	hits := 0
	for _, word := range strings.Split(relation, "_") {
		if terms[word] {
			hits++
		}
	}
	return hits
}

func noInformation() model.Answer {
	return model.Answer{
		Answer:     NoInformationAnswer,
		CitedNodes: []string{},
		CitedEdges: []string{},
	}
}
