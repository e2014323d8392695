package driver

import (
	"context"
	"fmt"

	"github.com/laithdarras/universal-kg/internal/core/model"
)

// Mirror writes store contents to the graph database with idempotent MERGE
// statements. The in-memory store stays the source of truth; the mirror only
// ever receives full node and edge state, so replays are harmless.
type Mirror struct {
	Driver GraphDriver
	// BatchSize caps the rows sent per UNWIND statement.
	BatchSize int
}

func NewMirror(d GraphDriver) *Mirror {
	return &Mirror{Driver: d, BatchSize: 500}
}

// Sync upserts nodes first and then the edges between them.
func (m *Mirror) Sync(ctx context.Context, nodes []model.Node, edges []model.Edge) error {
	nodeRows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		aliases := n.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		nodeRows = append(nodeRows, map[string]any{
			"uuid":    n.ID,
			"key":     n.Key,
			"label":   n.Label,
			"type":    n.Type,
			"aliases": aliases,
		})
	}
	if err := m.batched(ctx, UpsertEntityNodeQuery, "nodes", nodeRows); err != nil {
		return fmt.Errorf("failed to mirror nodes: %w", err)
	}

	edgeRows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		edgeRows = append(edgeRows, map[string]any{
			"uuid":        e.ID,
			"source_uuid": e.SourceID,
			"target_uuid": e.TargetID,
			"relation":    e.Relation,
			"confidence":  e.Confidence,
			"sources":     e.Sources,
		})
	}
	if err := m.batched(ctx, UpsertRelationQuery, "edges", edgeRows); err != nil {
		return fmt.Errorf("failed to mirror edges: %w", err)
	}
	return nil
}

// Counts returns the number of mirrored entities and relations.
func (m *Mirror) Counts(ctx context.Context) (nodes, edges int64, err error) {
	res, err := m.Driver.ExecuteQuery(ctx, CountGraphQuery, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(res.Records) == 0 {
		return 0, 0, nil
	}
	rec := res.Records[0]
	if v, ok := rec.Get("nodes"); ok {
		nodes, _ = v.(int64)
	}
	if v, ok := rec.Get("edges"); ok {
		edges, _ = v.(int64)
	}
	return nodes, edges, nil
}

// Reset removes every mirrored entity and relation.
func (m *Mirror) Reset(ctx context.Context) error {
	_, err := m.Driver.ExecuteQuery(ctx, DeleteGraphQuery, nil)
	return err
}

func (m *Mirror) batched(ctx context.Context, query, param string, rows []map[string]any) error {
	size := m.BatchSize
	if size <= 0 {
		size = len(rows)
	}
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if _, err := m.Driver.ExecuteQuery(ctx, query, map[string]any{param: rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}
