package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laithdarras/universal-kg/internal/core/model"
)

type executedQuery struct {
	Query  string
	Params map[string]any
}

type MockDriver struct {
	Executed   []executedQuery
	MockResult neo4j.EagerResult
	Err        error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func TestMirror_Sync(t *testing.T) {
	mock := &MockDriver{}
	mirror := NewMirror(mock)

	nodes := []model.Node{
		{ID: "n1", Key: "artificial intelligence", Label: "AI", Type: "entity", Aliases: []string{"AI"}},
		{ID: "n2", Key: "field", Label: "field", Type: "entity"},
	}
	edges := []model.Edge{
		{ID: "e1", SourceID: "n1", TargetID: "n2", Relation: "is", Confidence: 0.9, Sources: []string{"src1", "src2"}},
	}
	require.NoError(t, mirror.Sync(context.Background(), nodes, edges))

	require.Len(t, mock.Executed, 2)
	assert.Equal(t, UpsertEntityNodeQuery, mock.Executed[0].Query)
	rows := mock.Executed[0].Params["nodes"].([]map[string]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "n1", rows[0]["uuid"])
	assert.Equal(t, []string{}, rows[1]["aliases"], "nil aliases are sent as an empty list")

	assert.Equal(t, UpsertRelationQuery, mock.Executed[1].Query)
	edgeRows := mock.Executed[1].Params["edges"].([]map[string]any)
	require.Len(t, edgeRows, 1)
	assert.Equal(t, "n1", edgeRows[0]["source_uuid"])
	assert.Equal(t, 0.9, edgeRows[0]["confidence"])
	assert.Equal(t, []string{"src1", "src2"}, edgeRows[0]["sources"])
}

func TestMirror_Batches(t *testing.T) {
	mock := &MockDriver{}
	mirror := &Mirror{Driver: mock, BatchSize: 2}

	nodes := []model.Node{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	require.NoError(t, mirror.Sync(context.Background(), nodes, nil))

	require.Len(t, mock.Executed, 3)
	assert.Len(t, mock.Executed[2].Params["nodes"], 1)
}

func TestMirror_SyncError(t *testing.T) {
	mock := &MockDriver{Err: errors.New("connection refused")}
	err := NewMirror(mock).Sync(context.Background(), []model.Node{{ID: "1"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mirror nodes")
	assert.Len(t, mock.Executed, 1, "edges are not attempted after a node failure")
}

func TestMirror_Counts(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{
		Keys: []string{"nodes", "edges"},
		Records: []*neo4j.Record{
			{Keys: []string{"nodes", "edges"}, Values: []any{int64(3), int64(2)}},
		},
	}}
	nodes, edges, err := NewMirror(mock).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), nodes)
	assert.Equal(t, int64(2), edges)
	assert.Equal(t, CountGraphQuery, mock.Executed[0].Query)
}

func TestMirror_Reset(t *testing.T) {
	mock := &MockDriver{}
	require.NoError(t, NewMirror(mock).Reset(context.Background()))
	assert.Equal(t, DeleteGraphQuery, mock.Executed[0].Query)
}
