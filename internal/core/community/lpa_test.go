package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laithdarras/universal-kg/internal/core/model"
)

func triangle(a, b, c string) []model.Edge {
	return []model.Edge{edge(a, b), edge(b, c), edge(c, a)}
}

func TestLPA_DisconnectedComponents(t *testing.T) {
	edges := append(triangle("1", "2", "3"), triangle("4", "5", "6")...)

	communities, err := NewLabelPropagationDetector().Detect(nodes("1", "2", "3", "4", "5", "6"), edges)
	require.NoError(t, err)

	require.Len(t, communities, 2)
	assert.Equal(t, []string{"1", "2", "3"}, ids(communities[0]))
	assert.Equal(t, []string{"4", "5", "6"}, ids(communities[1]))
}

func TestLPA_BridgeNode(t *testing.T) {
	// Two triangles joined by the single edge 3-4 stay apart.
	edges := append(triangle("1", "2", "3"), edge("3", "4"))
	edges = append(edges, triangle("4", "5", "6")...)

	communities, err := NewLabelPropagationDetector().Detect(nodes("1", "2", "3", "4", "5", "6"), edges)
	require.NoError(t, err)

	require.Len(t, communities, 2)
	assert.Equal(t, []string{"1", "2", "3"}, ids(communities[0]))
	assert.Equal(t, []string{"4", "5", "6"}, ids(communities[1]))
}

func TestLPA_LargeClique(t *testing.T) {
	ns := nodes("1", "2", "3", "4", "5")
	var edges []model.Edge
	for i := range ns {
		for j := i + 1; j < len(ns); j++ {
			edges = append(edges, edge(ns[i].ID, ns[j].ID))
		}
	}

	communities, err := NewLabelPropagationDetector().Detect(ns, edges)
	require.NoError(t, err)

	require.Len(t, communities, 1)
	assert.Len(t, communities[0], 5)
}

func TestLPA_Deterministic(t *testing.T) {
	ns := nodes("a", "b", "c", "d", "e", "f", "g")
	edges := []model.Edge{
		edge("a", "b"), edge("b", "c"), edge("c", "d"), edge("d", "a"),
		edge("e", "f"), edge("f", "g"), edge("d", "e"), edge("a", "b"),
	}
	detector := NewLabelPropagationDetector()
	first, err := detector.Detect(ns, edges)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := detector.Detect(ns, edges)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLPA_Empty(t *testing.T) {
	communities, err := NewDefaultDetector().Detect(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, communities)
}
