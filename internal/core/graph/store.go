package graph

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/laithdarras/universal-kg/internal/core/dedupe"
	"github.com/laithdarras/universal-kg/internal/core/model"
)

// IDGenerator derives a node or edge id from a stable key. kind is "node" or "edge".
type IDGenerator func(kind, key string) string

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:universal-kg"))

// DeterministicID returns a UUIDv5 over kind and key, so the same graph built
// twice carries the same ids.
func DeterministicID(kind, key string) string {
	return uuid.NewSHA1(idNamespace, []byte(kind+":"+key)).String()
}

type Options struct {
	AllowSelfLoops bool
	NodeType       string
	Canonical      dedupe.Options
	NewID          IDGenerator
}

func DefaultOptions() Options {
	return Options{
		NodeType:  model.DefaultNodeType,
		Canonical: dedupe.DefaultOptions(),
		NewID:     DeterministicID,
	}
}

type node struct {
	id  string
	key string
	typ string
	seq int
}

type edgeKey struct {
	source   string
	relation string
	target   string
}

// Store owns every node and edge of the graph. One RWMutex guards it: each
// upsert resolves both entities and merges the edge under the write lock, so
// readers never see half of a triple.
type Store struct {
	mu sync.RWMutex

	canon          *dedupe.Canonicalizer
	allowSelfLoops bool
	nodeType       string
	newID          IDGenerator

	nodes     map[string]*node
	nodeOrder []string
	byKey     map[string]string

	edges     map[string]*model.Edge
	edgeOrder []string
	edgeSeq   map[string]int
	edgeIndex map[edgeKey]string
	incident  map[string][]string

	tokens     map[string][]string
	nodeTokens map[string]map[string]bool
}

func NewStore(opts Options) *Store {
	if opts.NodeType == "" {
		opts.NodeType = model.DefaultNodeType
	}
	if opts.NewID == nil {
		opts.NewID = DeterministicID
	}
	return &Store{
		canon:          dedupe.NewCanonicalizer(opts.Canonical),
		allowSelfLoops: opts.AllowSelfLoops,
		nodeType:       opts.NodeType,
		newID:          opts.NewID,
		nodes:          make(map[string]*node),
		byKey:          make(map[string]string),
		edges:          make(map[string]*model.Edge),
		edgeSeq:        make(map[string]int),
		edgeIndex:      make(map[edgeKey]string),
		incident:       make(map[string][]string),
		tokens:         make(map[string][]string),
		nodeTokens:     make(map[string]map[string]bool),
	}
}

// Upsert applies one triple. See UpsertTriple.
func (s *Store) Upsert(t model.Triple) (string, bool, error) {
	return s.UpsertTriple(t.Subject, t.Relation, t.Object, t.Source, t.Confidence)
}

// UpsertTriple resolves subject and object to nodes, creating them on first
// sight, and merges the (subject, relation, object) edge. A repeated triple
// keeps the maximum confidence and appends sourceID to its provenance once.
// Nothing is recorded when the triple is rejected.
func (s *Store) UpsertTriple(subjectRaw, relationRaw, objectRaw, sourceID string, confidence float64) (edgeID string, created bool, err error) {
	relation := dedupe.NormalizeRelation(relationRaw)
	if relation == "" {
		return "", false, fmt.Errorf("%w: empty relation %q", model.ErrInvalidTriple, relationRaw)
	}
	source := strings.TrimSpace(sourceID)
	if source == "" {
		return "", false, fmt.Errorf("%w: missing source id", model.ErrInvalidTriple)
	}
	confidence = clampConfidence(confidence)

	s.mu.Lock()
	defer s.mu.Unlock()

	subj, obj, err := s.canon.LookupPair(subjectRaw, objectRaw)
	if err != nil {
		return "", false, err
	}
	if subj.Key == obj.Key && !s.allowSelfLoops {
		return "", false, fmt.Errorf("%w: %q and %q are both %q", model.ErrDegenerateTriple, subjectRaw, objectRaw, subj.Key)
	}

	s.canon.Commit(subj, obj)
	sourceNode := s.ensureNode(subj)
	targetNode := s.ensureNode(obj)

	k := edgeKey{source: sourceNode, relation: relation, target: targetNode}
	if id, ok := s.edgeIndex[k]; ok {
		e := s.edges[id]
		if confidence > e.Confidence {
			e.Confidence = confidence
		}
		if !contains(e.Sources, source) {
			e.Sources = append(e.Sources, source)
		}
		return id, false, nil
	}

	id := s.newID("edge", sourceNode+"|"+relation+"|"+targetNode)
	s.edges[id] = &model.Edge{
		ID:         id,
		SourceID:   sourceNode,
		TargetID:   targetNode,
		Relation:   relation,
		Confidence: confidence,
		Sources:    []string{source},
	}
	s.edgeSeq[id] = len(s.edgeOrder)
	s.edgeOrder = append(s.edgeOrder, id)
	s.edgeIndex[k] = id
	s.incident[sourceNode] = append(s.incident[sourceNode], id)
	if targetNode != sourceNode {
		s.incident[targetNode] = append(s.incident[targetNode], id)
	}
	return id, true, nil
}

func (s *Store) ensureNode(res dedupe.Resolution) string {
	if id, ok := s.byKey[res.Key]; ok {
		s.indexTokens(id, res.Normalized)
		return id
	}
	id := s.newID("node", res.Key)
	s.nodes[id] = &node{id: id, key: res.Key, typ: s.nodeType, seq: len(s.nodeOrder)}
	s.nodeOrder = append(s.nodeOrder, id)
	s.byKey[res.Key] = id
	s.indexTokens(id, res.Key)
	s.indexTokens(id, res.Normalized)
	return id
}

func (s *Store) indexTokens(id, normalized string) {
	seen := s.nodeTokens[id]
	if seen == nil {
		seen = make(map[string]bool)
		s.nodeTokens[id] = seen
	}
	for _, tok := range strings.Fields(normalized) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		s.tokens[tok] = append(s.tokens[tok], id)
	}
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodeCopy(id)
	if !ok {
		return model.Node{}, fmt.Errorf("%w: node %s", model.ErrNotFound, id)
	}
	return n, nil
}

// Find returns the node raw would resolve to, without recording raw.
func (s *Store) Find(raw string) (model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, err := s.canon.Lookup(raw)
	if err != nil {
		return model.Node{}, err
	}
	n, ok := s.nodeCopy(s.byKey[res.Key])
	if !ok {
		return model.Node{}, fmt.Errorf("%w: entity %q", model.ErrNotFound, raw)
	}
	return n, nil
}

func (s *Store) nodeCopy(id string) (model.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	ident, _ := s.canon.Identity(n.key)
	return model.Node{
		ID:      n.id,
		Key:     n.key,
		Label:   ident.Label,
		Type:    n.typ,
		Aliases: ident.Aliases,
	}, true
}

// Edge returns a copy of the edge with the given id.
func (s *Store) Edge(id string) (model.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	if !ok {
		return model.Edge{}, fmt.Errorf("%w: edge %s", model.ErrNotFound, id)
	}
	return copyEdge(e), nil
}

// HasEdge reports whether sourceID -[relation]-> targetID exists. Unknown node
// ids are ErrNotFound rather than false.
func (s *Store) HasEdge(sourceID, targetID, relation string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range []string{sourceID, targetID} {
		if _, ok := s.nodes[id]; !ok {
			return false, fmt.Errorf("%w: node %s", model.ErrNotFound, id)
		}
	}
	_, ok := s.edgeIndex[edgeKey{source: sourceID, relation: dedupe.NormalizeRelation(relation), target: targetID}]
	return ok, nil
}

// Snapshot copies the graph in insertion order.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := model.Snapshot{
		Nodes: make([]model.NodeDTO, 0, len(s.nodeOrder)),
		Edges: make([]model.EdgeDTO, 0, len(s.edgeOrder)),
	}
	for _, id := range s.nodeOrder {
		n, _ := s.nodeCopy(id)
		snap.Nodes = append(snap.Nodes, n.DTO())
	}
	for _, id := range s.edgeOrder {
		snap.Edges = append(snap.Edges, s.edges[id].DTO())
	}
	return snap
}

// Stats returns the node and edge counts.
func (s *Store) Stats() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodeOrder), len(s.edgeOrder)
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

func copyEdge(e *model.Edge) model.Edge {
	out := *e
	out.Sources = make([]string, len(e.Sources))
	copy(out.Sources, e.Sources)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
