package graph

import (
	"fmt"

	"github.com/laithdarras/universal-kg/internal/core/dedupe"
	"github.com/laithdarras/universal-kg/internal/core/model"
)

// Dump is the full state of a store, including aliases and confidence that
// the snapshot DTO leaves out.
type Dump struct {
	Nodes []model.Node `json:"nodes"`
	Edges []model.Edge `json:"edges"`
}

// Export copies the full state in insertion order.
func (s *Store) Export() Dump {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := Dump{
		Nodes: make([]model.Node, 0, len(s.nodeOrder)),
		Edges: make([]model.Edge, 0, len(s.edgeOrder)),
	}
	for _, id := range s.nodeOrder {
		n, _ := s.nodeCopy(id)
		d.Nodes = append(d.Nodes, n)
	}
	for _, id := range s.edgeOrder {
		d.Edges = append(d.Edges, copyEdge(s.edges[id]))
	}
	return d
}

// Restore loads a dump into an empty store. The dump is validated first, so a
// rejected dump leaves the store untouched.
func (s *Store) Restore(d Dump) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.nodeOrder) > 0 || len(s.edgeOrder) > 0 {
		return model.ErrStoreNotEmpty
	}
	if err := validateDump(d); err != nil {
		return err
	}

	for _, n := range d.Nodes {
		typ := n.Type
		if typ == "" {
			typ = s.nodeType
		}
		label := n.Label
		if label == "" {
			label = n.Key
		}
		s.canon.Restore(dedupe.Identity{Key: n.Key, Label: label, Aliases: n.Aliases})
		s.nodes[n.ID] = &node{id: n.ID, key: n.Key, typ: typ, seq: len(s.nodeOrder)}
		s.nodeOrder = append(s.nodeOrder, n.ID)
		s.byKey[n.Key] = n.ID
		s.indexTokens(n.ID, n.Key)
		for _, alias := range n.Aliases {
			s.indexTokens(n.ID, dedupe.Normalize(alias))
		}
	}
	for _, e := range d.Edges {
		stored := e
		stored.Confidence = clampConfidence(e.Confidence)
		stored.Sources = append([]string(nil), e.Sources...)
		s.edges[e.ID] = &stored
		s.edgeSeq[e.ID] = len(s.edgeOrder)
		s.edgeOrder = append(s.edgeOrder, e.ID)
		s.edgeIndex[edgeKey{source: e.SourceID, relation: e.Relation, target: e.TargetID}] = e.ID
		s.incident[e.SourceID] = append(s.incident[e.SourceID], e.ID)
		if e.TargetID != e.SourceID {
			s.incident[e.TargetID] = append(s.incident[e.TargetID], e.ID)
		}
	}
	return nil
}

func validateDump(d Dump) error {
	ids := make(map[string]bool, len(d.Nodes))
	keys := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" || n.Key == "" {
			return fmt.Errorf("%w: node without id or key", model.ErrInvalidEntity)
		}
		if ids[n.ID] || keys[n.Key] {
			return fmt.Errorf("%w: duplicate node %s", model.ErrInvalidEntity, n.ID)
		}
		ids[n.ID], keys[n.Key] = true, true
	}
	edgeIDs := make(map[string]bool, len(d.Edges))
	triples := make(map[edgeKey]bool, len(d.Edges))
	for _, e := range d.Edges {
		if !ids[e.SourceID] || !ids[e.TargetID] {
			return fmt.Errorf("%w: edge %s references an unknown node", model.ErrNotFound, e.ID)
		}
		k := edgeKey{source: e.SourceID, relation: e.Relation, target: e.TargetID}
		if e.ID == "" || e.Relation == "" || edgeIDs[e.ID] || triples[k] {
			return fmt.Errorf("%w: edge %q is empty or duplicated", model.ErrInvalidTriple, e.ID)
		}
		edgeIDs[e.ID], triples[k] = true, true
	}
	return nil
}
