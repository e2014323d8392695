package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laithdarras/universal-kg/internal/bootstrap"
	"github.com/laithdarras/universal-kg/internal/logger"
	"github.com/laithdarras/universal-kg/internal/server"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", "error", err)
	}

	nodes, edges := app.Engine.Stats()
	log.Info("Engine ready", "nodes", nodes, "edges", edges,
		"sqlite", cfg.Storage.SQLitePath != "", "memgraph", cfg.Memgraph.URI != "", "redis", cfg.Redis.Addr != "")

	router := server.NewServer(app.Engine, cfg, log).SetupRouter()
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Failed to release resources", "error", err)
	}
	log.Info("Server exited")
}
