package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/laithdarras/universal-kg/internal/bootstrap"
	"github.com/laithdarras/universal-kg/internal/logger"
	"github.com/laithdarras/universal-kg/internal/mcpserver"
	"github.com/laithdarras/universal-kg/internal/observability"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries the protocol; zap already writes to stderr.
	observability.StdoutWriter = os.Stderr

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", "error", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Failed to release resources", "error", err)
		}
	}()

	log.Info("Serving MCP over stdio")
	if err := mcpserver.New(app.Engine, log).RunStdio(ctx); err != nil && ctx.Err() == nil {
		log.Error("MCP server stopped", "error", err)
	}
}
