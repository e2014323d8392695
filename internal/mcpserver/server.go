// Package mcpserver exposes the engine as Model Context Protocol tools and
// resources so agents can query and grow the graph.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/laithdarras/universal-kg/internal/core"
	"github.com/laithdarras/universal-kg/internal/logger"
	"github.com/laithdarras/universal-kg/internal/observability"
)

const uriPrefix = "kg://"

type Server struct {
	engine    *core.Engine
	log       *logger.Logger
	mcpServer *mcp.Server
}

func New(engine *core.Engine, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		engine: engine,
		log:    log.With("component", "mcp"),
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "universal-kg",
			Version: observability.Version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying server, e.g. to connect an in-memory transport.
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// RunStdio serves over stdin/stdout until ctx is cancelled or the client hangs up.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
