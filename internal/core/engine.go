package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/community"
	"github.com/laithdarras/universal-kg/internal/core/dedupe"
	"github.com/laithdarras/universal-kg/internal/core/extraction"
	"github.com/laithdarras/universal-kg/internal/core/graph"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/core/search"
	"github.com/laithdarras/universal-kg/internal/core/summary"
	"github.com/laithdarras/universal-kg/internal/events"
	"github.com/laithdarras/universal-kg/internal/ingest"
	"github.com/laithdarras/universal-kg/internal/llm"
	"github.com/laithdarras/universal-kg/internal/logger"
)

const tracerName = "github.com/laithdarras/universal-kg/internal/core"

// sinkTimeout bounds the sink writes of one batch once they are detached from
// the caller's context.
const sinkTimeout = 30 * time.Second

// SeedSource is the provenance id of the sample triples applied by
// seed_when_empty.
const SeedSource = "seed"

var seedTriples = []model.Triple{
	{Subject: "Artificial Intelligence", Relation: "defined_as", Object: "Field of Computer Science", Confidence: 1.0, Source: SeedSource},
	{Subject: "Artificial Intelligence", Relation: "related_to", Object: "Machine Learning", Confidence: 0.9, Source: SeedSource},
	{Subject: "Machine Learning", Relation: "subset_of", Object: "Artificial Intelligence", Confidence: 0.9, Source: SeedSource},
}

// GraphMirror receives the current state of nodes and edges touched by a batch.
type GraphMirror interface {
	Sync(ctx context.Context, nodes []model.Node, edges []model.Edge) error
}

// SnapshotStore persists full dumps of the store.
type SnapshotStore interface {
	Save(ctx context.Context, d graph.Dump) error
	Load(ctx context.Context) (graph.Dump, error)
}

// Engine ties the store to extraction, retrieval and the optional
// mirror, persistence and event sinks. The store is the only source of truth:
// sink failures are logged and never change a batch result.
type Engine struct {
	Store      *graph.Store
	Retriever  *search.Retriever
	Extractor  extraction.Extractor
	Summarizer *summary.Summarizer
	Detector   community.Detector
	Pipeline   *ingest.Pipeline

	Mirror    GraphMirror
	Persister SnapshotStore
	Events    events.Publisher

	Log    *logger.Logger
	Config *config.Config

	tracer trace.Tracer
	// sinkMu orders sink writes: state is read from the store only after the
	// lock is held, so a later write never carries an older graph.
	sinkMu sync.Mutex
}

// StoreOptions maps configuration onto graph store options.
func StoreOptions(cfg *config.Config) graph.Options {
	opts := graph.DefaultOptions()
	opts.AllowSelfLoops = cfg.Graph.AllowSelfLoops
	if cfg.Graph.NodeType != "" {
		opts.NodeType = cfg.Graph.NodeType
	}
	opts.Canonical = dedupe.Options{
		Fuzzy:     cfg.Canonical.Fuzzy,
		Threshold: cfg.Canonical.Threshold,
		Aliases:   cfg.Canonical.Aliases,
	}
	return opts
}

// NewEngine builds an in-memory engine. llmClient may be nil, in which case
// triples come from the rule extractor and communities get template text.
func NewEngine(cfg *config.Config, llmClient llm.LLMClient, log *logger.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}

	store := graph.NewStore(StoreOptions(cfg))
	summarizer := summary.NewSummarizer(llmClient, cfg.Summary)
	retriever := search.NewRetriever(store, summarizer, search.Options{
		SeedLimit:      cfg.Search.SeedLimit,
		EvidenceLimit:  cfg.Search.EvidenceLimit,
		MinTokenLen:    cfg.Search.MinTokenLen,
		RelationWeight: cfg.Search.RelationWeight,
	})

	return &Engine{
		Store:      store,
		Retriever:  retriever,
		Extractor:  extraction.New(llmClient, cfg.Extraction, log),
		Summarizer: summarizer,
		Detector:   community.NewDefaultDetector(),
		Pipeline:   ingest.NewPipeline(cfg.Ingest, cfg.Concurrency.Fetch, log),
		Events:     events.Noop{},
		Log:        log.With("component", "engine"),
		Config:     cfg,
		tracer:     otel.Tracer(tracerName),
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Restore loads the persisted snapshot into the empty store. It is a no-op
// without a persister.
func (e *Engine) Restore(ctx context.Context) error {
	if e.Persister == nil {
		return nil
	}
	d, err := e.Persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := e.Store.Restore(d); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	e.Log.Info("Restored graph", "nodes", len(d.Nodes), "edges", len(d.Edges))
	return nil
}

// ApplyTriples upserts triples in order. A rejected triple is logged and
// reported as skipped; the rest of the batch still applies.
func (e *Engine) ApplyTriples(ctx context.Context, triples []model.Triple) model.BatchResult {
	ctx, span := e.startSpan(ctx, "kg.apply_triples", attribute.Int("kg.triples", len(triples)))
	defer span.End()

	res := e.applyTriples(triples)
	span.SetAttributes(attribute.Int("kg.created", res.Created), attribute.Int("kg.skipped", res.Skipped))
	e.afterBatch(ctx, res, "triples")
	return res
}

func (e *Engine) applyTriples(triples []model.Triple) model.BatchResult {
	res := model.BatchResult{Items: make([]model.TripleResult, 0, len(triples))}
	for _, t := range triples {
		edgeID, created, err := e.Store.Upsert(t)
		if err != nil {
			e.Log.Warn("Skipping triple",
				"subject", t.Subject,
				"relation", t.Relation,
				"object", t.Object,
				"source", t.Source,
				"reason", err.Error(),
			)
			res.Add(model.TripleResult{Triple: t, Status: model.StatusSkipped, Reason: err.Error()})
			continue
		}
		status := model.StatusMerged
		if created {
			status = model.StatusCreated
		}
		res.Add(model.TripleResult{Triple: t, Status: status, EdgeID: edgeID})
	}
	return res
}

// IngestChunks extracts triples from every chunk concurrently and applies
// them in chunk order, so the resulting graph does not depend on which
// extraction finishes first.
func (e *Engine) IngestChunks(ctx context.Context, chunks []model.Chunk) model.BatchResult {
	ctx, span := e.startSpan(ctx, "kg.ingest_chunks", attribute.Int("kg.chunks", len(chunks)))
	defer span.End()

	extracted := make([][]model.Triple, len(chunks))
	limit := e.Config.Concurrency.Extract
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, chunk := range chunks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			extracted[i] = e.Extractor.Extract(gctx, chunk.Text, chunk.SourceID)
			e.Log.Debug("Extracted triples", "source", chunk.SourceID, "count", len(extracted[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.Log.Warn("Extraction interrupted", "error", err)
	}

	var res model.BatchResult
	for _, triples := range extracted {
		res.Merge(e.applyTriples(triples))
	}
	res.Merge(e.seedWhenEmpty())

	nodes, edges := e.Store.Stats()
	e.Log.Info("Ingested chunks", "chunks", len(chunks), "created", res.Created, "merged", res.Merged, "skipped", res.Skipped, "nodes", nodes, "edges", edges)
	span.SetAttributes(attribute.Int("kg.created", res.Created), attribute.Int("kg.skipped", res.Skipped))
	e.afterBatch(ctx, res, "chunks")
	return res
}

// IngestText chunks text under source and ingests the chunks.
func (e *Engine) IngestText(ctx context.Context, source, text string) model.BatchResult {
	return e.IngestChunks(ctx, e.Pipeline.Chunks(source, text))
}

// IngestURLs fetches urls and ingests their chunks. Fetch failures are
// returned alongside the result of whatever could be fetched.
func (e *Engine) IngestURLs(ctx context.Context, urls []string) (model.BatchResult, error) {
	chunks, err := e.Pipeline.FetchURLs(ctx, urls)
	return e.IngestChunks(ctx, chunks), err
}

func (e *Engine) seedWhenEmpty() model.BatchResult {
	if !e.Config.Ingest.SeedWhenEmpty {
		return model.BatchResult{}
	}
	if nodes, _ := e.Store.Stats(); nodes > 0 {
		return model.BatchResult{}
	}
	e.Log.Warn("Graph empty after ingest; seeded sample triples")
	return e.applyTriples(seedTriples)
}

// afterBatch pushes the effects of a batch to the configured sinks.
func (e *Engine) afterBatch(ctx context.Context, res model.BatchResult, source string) {
	if res.Applied() == 0 {
		return
	}
	edgeIDs := res.EdgeIDs()

	// The store has already changed; a cancelled request must not leave the
	// sinks behind it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	if e.Mirror != nil {
		nodes, edges := e.touched(edgeIDs)
		if err := e.Mirror.Sync(ctx, nodes, edges); err != nil {
			e.Log.Error("Failed to mirror batch", "edges", len(edges), "error", err)
		}
	}

	if e.Persister != nil {
		if err := e.Persister.Save(ctx, e.Store.Export()); err != nil {
			e.Log.Error("Failed to persist snapshot", "error", err)
		}
	}

	if e.Events != nil {
		nodes, edges := e.Store.Stats()
		ev := events.Event{
			Type:      events.TypeGraphUpdated,
			Timestamp: time.Now().UTC(),
			Source:    source,
			Created:   res.Created,
			Merged:    res.Merged,
			Skipped:   res.Skipped,
			Nodes:     nodes,
			Edges:     edges,
			EdgeIDs:   edgeIDs,
		}
		if err := e.Events.Publish(ctx, ev); err != nil {
			e.Log.Error("Failed to publish graph event", "error", err)
		}
	}
}

// touched returns the current state of the given edges and their endpoints.
func (e *Engine) touched(edgeIDs []string) ([]model.Node, []model.Edge) {
	seen := make(map[string]bool)
	var nodes []model.Node
	edges := make([]model.Edge, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		edge, err := e.Store.Edge(id)
		if err != nil {
			continue
		}
		edges = append(edges, edge)
		for _, nid := range []string{edge.SourceID, edge.TargetID} {
			if seen[nid] {
				continue
			}
			seen[nid] = true
			if n, err := e.Store.Node(nid); err == nil {
				nodes = append(nodes, n)
			}
		}
	}
	return nodes, edges
}

// Answer answers question from the graph.
func (e *Engine) Answer(ctx context.Context, question string) (model.Answer, error) {
	_, span := e.startSpan(ctx, "kg.answer")
	defer span.End()

	ans, err := e.Retriever.Answer(question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Answer{}, err
	}
	span.SetAttributes(attribute.Int("kg.cited_edges", len(ans.CitedEdges)))
	return ans, nil
}

func (e *Engine) Snapshot() model.Snapshot {
	return e.Store.Snapshot()
}

func (e *Engine) Node(id string) (model.Node, error) {
	return e.Store.Node(id)
}

func (e *Engine) HasEdge(sourceID, targetID, relation string) (bool, error) {
	return e.Store.HasEdge(sourceID, targetID, relation)
}

func (e *Engine) Stats() (nodes, edges int) {
	return e.Store.Stats()
}

// Communities clusters the current graph and describes each cluster.
func (e *Engine) Communities(ctx context.Context) ([]model.Community, error) {
	ctx, span := e.startSpan(ctx, "kg.communities")
	defer span.End()

	d := e.Store.Export()
	clusters, err := e.Detector.Detect(d.Nodes, d.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to detect communities: %w", err)
	}

	labels := make(map[string]string, len(d.Nodes))
	for _, n := range d.Nodes {
		labels[n.ID] = n.Label
	}

	out := make([]model.Community, 0, len(clusters))
	for i, cluster := range clusters {
		members := make(map[string]bool, len(cluster))
		ids := make([]string, 0, len(cluster))
		names := make([]string, 0, len(cluster))
		for _, n := range cluster {
			members[n.ID] = true
			ids = append(ids, n.ID)
			names = append(names, n.Label)
		}

		var facts []summary.Fact
		for _, edge := range d.Edges {
			if members[edge.SourceID] && members[edge.TargetID] {
				facts = append(facts, summary.Fact{
					Subject:  labels[edge.SourceID],
					Relation: edge.Relation,
					Object:   labels[edge.TargetID],
				})
			}
		}

		description, err := e.Summarizer.DescribeCommunity(ctx, names, facts)
		if err != nil {
			e.Log.Warn("Community summary failed, using template", "community", i+1, "error", err)
			description = e.Summarizer.CommunityTemplate(names)
		}
		out = append(out, model.Community{
			ID:          fmt.Sprintf("community_%d", i+1),
			Description: description,
			Nodes:       ids,
		})
	}
	span.SetAttributes(attribute.Int("kg.communities", len(out)))
	return out, nil
}
