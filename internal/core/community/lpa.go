package community

import (
	"github.com/laithdarras/universal-kg/internal/core/model"
)

// LabelPropagationDetector implements community detection using the Label
// Propagation Algorithm. Nodes are visited in snapshot order and ties are
// broken towards the current label, then towards the most recently inserted
// label, so the same snapshot always yields the same communities.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

func (d *LabelPropagationDetector) Detect(nodes []model.Node, edges []model.Edge) ([][]model.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	g := newUndirected(nodes, edges)

	// Each node starts with its own label.
	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.ID
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changes := 0
		for _, n := range nodes {
			u := n.ID
			if len(g.neighbors[u]) == 0 {
				continue
			}

			counts := make(map[string]int)
			best := 0
			for _, v := range g.neighbors[u] {
				label := labels[v]
				counts[label] += g.weight[u][v]
				if counts[label] > best {
					best = counts[label]
				}
			}
			if counts[labels[u]] == best {
				continue
			}

			next := ""
			for _, v := range g.neighbors[u] {
				label := labels[v]
				if counts[label] != best {
					continue
				}
				if next == "" || g.rank[label] > g.rank[next] {
					next = label
				}
			}
			labels[u] = next
			changes++
		}
		if changes == 0 {
			break
		}
	}

	// Group by label, ordering clusters by their first member.
	var order []string
	clusters := make(map[string]map[string]bool)
	for _, n := range nodes {
		label := labels[n.ID]
		if clusters[label] == nil {
			clusters[label] = map[string]bool{}
			order = append(order, label)
		}
		clusters[label][n.ID] = true
	}

	var communities [][]model.Node
	for _, label := range order {
		if len(clusters[label]) >= MinSize {
			communities = append(communities, g.ordered(clusters[label]))
		}
	}
	return communities, nil
}
