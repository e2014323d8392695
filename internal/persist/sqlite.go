package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/laithdarras/universal-kg/internal/core/graph"
	"github.com/laithdarras/universal-kg/internal/core/model"
)

func allPragmas() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
}

func allSchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			seq     INTEGER PRIMARY KEY,
			id      TEXT NOT NULL UNIQUE,
			key     TEXT NOT NULL UNIQUE,
			label   TEXT NOT NULL,
			type    TEXT NOT NULL,
			aliases TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			seq        INTEGER PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			source_id  TEXT NOT NULL,
			target_id  TEXT NOT NULL,
			relation   TEXT NOT NULL,
			confidence REAL NOT NULL,
			sources    TEXT NOT NULL DEFAULT '[]'
		)`,
	}
}

// SQLiteStore keeps the latest full dump of the graph. Every Save replaces
// the previous contents in one transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored graph with d.
func (s *SQLiteStore) Save(ctx context.Context, d graph.Dump) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		return fmt.Errorf("clearing edges: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (seq, id, key, label, type, aliases) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()
	for i, n := range d.Nodes {
		aliases, err := marshalList(n.Aliases)
		if err != nil {
			return err
		}
		if _, err := nodeStmt.ExecContext(ctx, i, n.ID, n.Key, n.Label, n.Type, aliases); err != nil {
			return fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (seq, id, source_id, target_id, relation, confidence, sources) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range d.Edges {
		sources, err := marshalList(e.Sources)
		if err != nil {
			return err
		}
		if _, err := edgeStmt.ExecContext(ctx, i, e.ID, e.SourceID, e.TargetID, e.Relation, e.Confidence, sources); err != nil {
			return fmt.Errorf("inserting edge %s: %w", e.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing graph: %w", err)
	}
	return nil
}

// Load returns the stored graph in insertion order. An empty database
// yields an empty dump.
func (s *SQLiteStore) Load(ctx context.Context) (graph.Dump, error) {
	d := graph.Dump{Nodes: []model.Node{}, Edges: []model.Edge{}}

	rows, err := s.db.QueryContext(ctx, `SELECT id, key, label, type, aliases FROM nodes ORDER BY seq`)
	if err != nil {
		return graph.Dump{}, fmt.Errorf("querying nodes: %w", err)
	}
	for rows.Next() {
		var n model.Node
		var aliases string
		if err := rows.Scan(&n.ID, &n.Key, &n.Label, &n.Type, &aliases); err != nil {
			rows.Close()
			return graph.Dump{}, fmt.Errorf("scanning node: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &n.Aliases); err != nil {
			rows.Close()
			return graph.Dump{}, fmt.Errorf("decoding aliases of %s: %w", n.ID, err)
		}
		d.Nodes = append(d.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return graph.Dump{}, fmt.Errorf("iterating nodes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT id, source_id, target_id, relation, confidence, sources FROM edges ORDER BY seq`)
	if err != nil {
		return graph.Dump{}, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.Edge
		var sources string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Relation, &e.Confidence, &sources); err != nil {
			return graph.Dump{}, fmt.Errorf("scanning edge: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
			return graph.Dump{}, fmt.Errorf("decoding sources of %s: %w", e.ID, err)
		}
		d.Edges = append(d.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return graph.Dump{}, fmt.Errorf("iterating edges: %w", err)
	}
	return d, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshaling list: %w", err)
	}
	return string(raw), nil
}
