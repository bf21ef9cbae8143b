package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	catalogURI       = "storefront://catalog"
	siteURIPrefix    = "storefront://site/"
	navigationSuffix = "/navigation"
)

func (s *Server) registerResources() {
	// ── storefront://catalog ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		catalogURI,
		"Block Catalog",
		mcp.WithMIMEType("application/json"),
	), s.handleCatalogResource)

	// ── storefront://site/{slug}/navigation ────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			siteURIPrefix+"{slug}"+navigationSuffix,
			"Published Navigation",
		),
		s.handleNavigationResource,
	)
}

func (s *Server) handleCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.sites.Registry().Definitions(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      catalogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleNavigationResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	slugValue := slugFromURI(uri)
	if slugValue == "" {
		return nil, fmt.Errorf("could not extract slug from URI: %s", uri)
	}

	links, err := s.sites.Navigation(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(links, "", "  ")
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

// slugFromURI extracts the slug from "storefront://site/{slug}/navigation".
func slugFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, siteURIPrefix)
	if !ok {
		return ""
	}
	rest, ok = strings.CutSuffix(rest, navigationSuffix)
	if !ok || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
