package events

import (
	"context"
	"time"
)

const TypeGraphUpdated = "graph.updated"

// Event announces a change to the graph. It carries counts and the ids
// touched by one batch, not the graph itself.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	Created   int       `json:"created"`
	Merged    int       `json:"merged"`
	Skipped   int       `json:"skipped"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	EdgeIDs   []string  `json:"edge_ids"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
