package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/laithdarras/universal-kg/internal/core/graph"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/events"
	"github.com/laithdarras/universal-kg/internal/logger"
)

type MockLLM struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

// The sinks below fail on a cancelled context, like the real drivers do.

type MockMirror struct {
	mu    sync.Mutex
	Nodes [][]model.Node
	Edges [][]model.Edge
	Err   error
}

func (m *MockMirror) Sync(ctx context.Context, nodes []model.Node, edges []model.Edge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Nodes = append(m.Nodes, nodes)
	m.Edges = append(m.Edges, edges)
	return m.Err
}

type MemoryPersister struct {
	mu    sync.Mutex
	Dump  graph.Dump
	Saves int
	Err   error
	// Gate, when set, is called with the dump inside every Save before it is stored.
	Gate func(graph.Dump)
}

func (m *MemoryPersister) Save(ctx context.Context, d graph.Dump) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Err != nil {
		return m.Err
	}
	if m.Gate != nil {
		m.Gate(d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	m.Dump = d
	return nil
}

func (m *MemoryPersister) Load(ctx context.Context) (graph.Dump, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return graph.Dump{}, m.Err
	}
	return m.Dump, nil
}

type MemoryPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MemoryPublisher) Publish(ctx context.Context, ev events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

var errSinkDown = errors.New("sink down")

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}
