package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/logger"
)

// TextFetcher is satisfied by *Fetcher.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Pipeline turns URLs, uploads and raw text into chunks carrying provenance
// ids of the form "<source>#chunk_<i>".
type Pipeline struct {
	Fetcher       TextFetcher
	ChunkSize     int
	ChunkOverlap  int
	MaxChunkChars int
	Concurrency   int
	Log           *logger.Logger
}

func NewPipeline(cfg config.IngestConfig, concurrency int, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		Fetcher:       NewFetcher(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, cfg.UserAgent),
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		MaxChunkChars: cfg.MaxChunkChars,
		Concurrency:   concurrency,
		Log:           log.With("component", "ingest"),
	}
}

// Chunks splits text and stamps each piece with its source id. Pieces longer
// than MaxChunkChars are skipped; their index is still consumed so ids stay
// stable.
func (p *Pipeline) Chunks(source, text string) []model.Chunk {
	var out []model.Chunk
	for i, piece := range Chunk(text, p.ChunkSize, p.ChunkOverlap) {
		if n := utf8.RuneCountInString(piece); p.MaxChunkChars > 0 && n > p.MaxChunkChars {
			p.Log.Info("Skipping oversized chunk", "source", source, "chunk", i, "chars", n)
			continue
		}
		out = append(out, model.Chunk{Text: piece, SourceID: fmt.Sprintf("%s#chunk_%d", source, i)})
	}
	return out
}

// FetchURLs downloads urls concurrently and returns their chunks in url
// order. A failed url contributes no chunks; all failures are joined into
// the returned error.
func (p *Pipeline) FetchURLs(ctx context.Context, urls []string) ([]model.Chunk, error) {
	limit := p.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([][]model.Chunk, len(urls))
	failures := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, url := range urls {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			text, err := p.Fetcher.Fetch(gctx, url)
			if err != nil {
				p.Log.Error("Error processing URL", "url", url, "error", err)
				failures[i] = err
				return nil
			}
			results[i] = p.Chunks(url, text)
			p.Log.Info("Fetched URL", "url", url, "chars", utf8.RuneCountInString(text), "chunks", len(results[i]))
			if len(results[i]) == 0 {
				p.Log.Warn("No content extracted", "url", url)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []model.Chunk
	for _, r := range results {
		chunks = append(chunks, r...)
	}
	return chunks, errors.Join(failures...)
}
