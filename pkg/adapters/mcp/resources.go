package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	componentsURI = "tessera://components"
	templatesURI  = "tessera://templates"
	pagePrefix    = "tessera://pages/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(componentsURI, "Component Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(componentsURI, s.engine.Registry().Catalog())
	})

	s.mcpServer.AddResource(mcp.NewResource(templatesURI, "Page Templates",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.engine.Templates().ListTemplates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		return jsonContents(templatesURI, list)
	})

	// tessera://pages/{ref} is the stored schema; refs containing "/" are escaped.
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(pagePrefix+"{ref}", "Stored Page",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		ref := strings.ReplaceAll(strings.TrimPrefix(uri, pagePrefix), "%2F", "/")
		if ref == "" || ref == uri {
			return nil, fmt.Errorf("could not extract page ref from URI: %s", uri)
		}
		schema, err := s.engine.Sessions().Store().Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, schema)
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
