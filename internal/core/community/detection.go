package community

import (
	"github.com/laithdarras/universal-kg/internal/core/model"
)

// MinSize is the smallest cluster reported as a community.
const MinSize = 2

// Detector groups nodes into communities. Results are ordered by the
// position of each community's first member in nodes, and members keep the
// order they have in nodes.
type Detector interface {
	Detect(nodes []model.Node, edges []model.Edge) ([][]model.Node, error)
}

// NewDefaultDetector returns the label propagation detector.
func NewDefaultDetector() Detector {
	return NewLabelPropagationDetector()
}

// ComponentDetector reports connected components, ignoring edge direction.
type ComponentDetector struct{}

func NewComponentDetector() *ComponentDetector {
	return &ComponentDetector{}
}

func (d *ComponentDetector) Detect(nodes []model.Node, edges []model.Edge) ([][]model.Node, error) {
	g := newUndirected(nodes, edges)

	visited := make(map[string]bool, len(nodes))
	var communities [][]model.Node
	for _, n := range nodes {
		if visited[n.ID] {
			continue
		}
		members := map[string]bool{}
		stack := []string{n.ID}
		visited[n.ID] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members[u] = true
			for _, v := range g.neighbors[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		if len(members) >= MinSize {
			communities = append(communities, g.ordered(members))
		}
	}
	return communities, nil
}

// undirected is the symmetric adjacency of a snapshot. Edges whose endpoints
// are not in the node list, and self-loops, are ignored.
type undirected struct {
	nodes     []model.Node
	rank      map[string]int
	neighbors map[string][]string
	weight    map[string]map[string]int
}

func newUndirected(nodes []model.Node, edges []model.Edge) *undirected {
	g := &undirected{
		nodes:     nodes,
		rank:      make(map[string]int, len(nodes)),
		neighbors: make(map[string][]string, len(nodes)),
		weight:    make(map[string]map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		g.rank[n.ID] = i
		g.weight[n.ID] = map[string]int{}
	}
	for _, e := range edges {
		if e.SourceID == e.TargetID {
			continue
		}
		if _, ok := g.rank[e.SourceID]; !ok {
			continue
		}
		if _, ok := g.rank[e.TargetID]; !ok {
			continue
		}
		g.link(e.SourceID, e.TargetID)
		g.link(e.TargetID, e.SourceID)
	}
	return g
}

func (g *undirected) link(u, v string) {
	if g.weight[u][v] == 0 {
		g.neighbors[u] = append(g.neighbors[u], v)
	}
	g.weight[u][v]++
}

// ordered returns the member nodes in snapshot order.
func (g *undirected) ordered(members map[string]bool) []model.Node {
	out := make([]model.Node, 0, len(members))
	for _, n := range g.nodes {
		if members[n.ID] {
			out = append(out, n)
		}
	}
	return out
}
