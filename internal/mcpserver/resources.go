package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriPrefix + "graph",
		Name:        "Graph Snapshot",
		Description: "All nodes and edges of the knowledge graph",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)}},
		}, nil
	})

	schemas := buildSchemaMap()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriPrefix + "schemas/{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		name := strings.TrimPrefix(uri, uriPrefix+"schemas/")
		schema, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", name)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "application/schema+json", Text: schema}},
		}, nil
	})
}

func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[AskArgs](m, "ask")
	addSchema[GraphArgs](m, "graph")
	addSchema[IngestTextArgs](m, "ingest_text")
	addSchema[IngestURLsArgs](m, "ingest_urls")
	addSchema[NodeArgs](m, "node")
	addSchema[CommunitiesArgs](m, "communities")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(data)
}
