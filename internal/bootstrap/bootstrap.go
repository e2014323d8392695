// Package bootstrap wires configuration into a ready engine for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core"
	"github.com/laithdarras/universal-kg/internal/driver"
	"github.com/laithdarras/universal-kg/internal/events"
	"github.com/laithdarras/universal-kg/internal/llm"
	"github.com/laithdarras/universal-kg/internal/logger"
	"github.com/laithdarras/universal-kg/internal/observability"
	"github.com/laithdarras/universal-kg/internal/persist"
)

// LoadConfig reads .env, then the TOML file named by CONFIG_PATH (or the
// default path), then environment overrides, and validates the result.
func LoadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	config.FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// App is an engine plus the resources that must be released on exit.
type App struct {
	Engine  *core.Engine
	closers []func(context.Context) error
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// New builds the engine described by cfg. Optional sinks (Memgraph, SQLite,
// Redis, tracing) are attached only when configured; a configured sink that
// cannot be reached is an error.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close(ctx)
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fail(fmt.Errorf("failed to init tracing: %w", err))
	}
	app.closers = append(app.closers, shutdown)

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize LLM client: %w", err))
	}
	if llmClient == nil {
		log.Info("No LLM provider configured, using rule-based extraction")
	} else {
		log.Info("LLM configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	engine := core.NewEngine(cfg, llmClient, log)
	app.Engine = engine

	if cfg.Storage.SQLitePath != "" {
		store, err := persist.NewSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, func(context.Context) error { return store.Close() })
		engine.Persister = store
		if err := engine.Restore(ctx); err != nil {
			return fail(err)
		}
	}

	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, log)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to Memgraph: %w", err))
		}
		app.closers = append(app.closers, d.Close)
		if err := d.BuildIndices(ctx); err != nil {
			return fail(err)
		}
		mirror := driver.NewMirror(d)
		engine.Mirror = mirror
		if nodes, edges := engine.Stats(); nodes > 0 {
			dump := engine.Store.Export()
			if err := mirror.Sync(ctx, dump.Nodes, dump.Edges); err != nil {
				log.Error("Failed to mirror restored graph", "nodes", nodes, "edges", edges, "error", err)
			}
		}
	}

	if cfg.Redis.Addr != "" {
		pub, err := events.NewRedisPublisher(ctx, cfg.Redis, log)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, func(context.Context) error { return pub.Close() })
		engine.Events = pub
	}

	return app, nil
}
