package graph

import "github.com/laithdarras/universal-kg/internal/core/model"

// View is a read-only window on the store, valid only inside Read.
type View interface {
	// Len is the number of nodes.
	Len() int
	// Candidates lists the ids of nodes whose label or aliases contain token.
	Candidates(token string) []string
	Node(id string) (model.Node, bool)
	// Rank is the insertion position of a node, -1 if unknown.
	Rank(id string) int
	// Incident lists the edges touching a node in insertion order.
	Incident(id string) []model.Edge
	// EdgeRank is the insertion position of an edge, -1 if unknown.
	EdgeRank(id string) int
	// Expand maps an alias such as "ml" to its canonical form.
	Expand(term string) (string, bool)
}

// Read runs fn with the store read-locked. Several readers may run at once;
// writers wait until fn returns.
func (s *Store) Read(fn func(View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(storeView{s})
}

type storeView struct {
	s *Store
}

func (v storeView) Len() int {
	return len(v.s.nodeOrder)
}

func (v storeView) Candidates(token string) []string {
	ids := v.s.tokens[token]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (v storeView) Node(id string) (model.Node, bool) {
	return v.s.nodeCopy(id)
}

func (v storeView) Rank(id string) int {
	if n, ok := v.s.nodes[id]; ok {
		return n.seq
	}
	return -1
}

func (v storeView) Incident(id string) []model.Edge {
	ids := v.s.incident[id]
	out := make([]model.Edge, 0, len(ids))
	for _, eid := range ids {
		out = append(out, copyEdge(v.s.edges[eid]))
	}
	return out
}

func (v storeView) EdgeRank(id string) int {
	if seq, ok := v.s.edgeSeq[id]; ok {
		return seq
	}
	return -1
}

func (v storeView) Expand(term string) (string, bool) {
	return v.s.canon.Expand(term)
}
