package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/laithdarras/universal-kg/internal/core/model"
)

type AskArgs struct {
	Question string `json:"question" jsonschema:"The natural-language question to answer from the graph"`
}

type GraphArgs struct{}

type IngestTextArgs struct {
	Text   string `json:"text" jsonschema:"Raw text to extract triples from"`
	Source string `json:"source,omitempty" jsonschema:"Provenance id recorded on every triple, defaults to text"`
}

type IngestURLsArgs struct {
	URLs []string `json:"urls" jsonschema:"Web pages to fetch, chunk and extract"`
}

type NodeArgs struct {
	ID string `json:"id" jsonschema:"Node id as returned by graph or ask"`
}

type CommunitiesArgs struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask",
		Description: "Answers a question from the knowledge graph and cites the nodes and edges used",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AskArgs) (*mcp.CallToolResult, any, error) {
		ans, err := s.engine.Answer(ctx, args.Question)
		if err != nil {
			return s.toolError("ask", err), nil, nil
		}
		return jsonResult(ans), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "graph",
		Description: "Returns every node and edge in insertion order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GraphArgs) (*mcp.CallToolResult, any, error) {
		return jsonResult(s.engine.Snapshot()), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Extracts triples from text and merges them into the graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IngestTextArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Text) == "" {
			return errorResult("text must not be empty"), nil, nil
		}
		source := strings.TrimSpace(args.Source)
		if source == "" {
			source = "text"
		}
		res := s.engine.IngestText(ctx, source, args.Text)
		return summaryResult(res), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ingest_urls",
		Description: "Fetches web pages and merges the extracted triples into the graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IngestURLsArgs) (*mcp.CallToolResult, any, error) {
		if len(args.URLs) == 0 {
			return errorResult("urls must not be empty"), nil, nil
		}
		res, err := s.engine.IngestURLs(ctx, args.URLs)
		if err != nil && res.Created+res.Merged == 0 {
			return s.toolError("ingest_urls", err), nil, nil
		}
		if err != nil {
			s.log.Warn("Some URLs failed", "error", err)
		}
		return summaryResult(res), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "node",
		Description: "Returns one node with its aliases",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		n, err := s.engine.Node(args.ID)
		if err != nil {
			return s.toolError("node", err), nil, nil
		}
		return jsonResult(n), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "communities",
		Description: "Detects clusters of related entities and describes each one",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CommunitiesArgs) (*mcp.CallToolResult, any, error) {
		comms, err := s.engine.Communities(ctx)
		if err != nil {
			return s.toolError("communities", err), nil, nil
		}
		return jsonResult(comms), nil, nil
	})
}

// toolError reports caller mistakes verbatim and hides everything else.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, model.ErrInvalidQuery), errors.Is(err, model.ErrNotFound):
		return errorResult(err.Error())
	default:
		s.log.Error("Tool failed", "tool", tool, "error", err)
		return errorResult("internal error")
	}
}

func summaryResult(res model.BatchResult) *mcp.CallToolResult {
	return textResult(fmt.Sprintf("Created %d, merged %d, skipped %d triples", res.Created, res.Merged, res.Skipped))
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return textResult(string(data))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}, IsError: true}
}
