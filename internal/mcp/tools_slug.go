package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSlugTools() {
	// ── generate_slug ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("generate_slug",
		mcp.WithDescription("Propose a URL slug for a restaurant name"),
		mcp.WithString("name",
			mcp.Description("Restaurant display name"),
			mcp.Required(),
		),
		mcp.WithBoolean("unique",
			mcp.Description("Append a numeric suffix until the slug is free (default false)"),
		),
	), s.handleGenerateSlug)

	// ── check_slug ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("check_slug",
		mcp.WithDescription("Check whether a slug is free for the open site"),
		mcp.WithString("slug",
			mcp.Description("Slug to check"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleCheckSlug)

	// ── set_slug ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_slug",
		mcp.WithDescription("Set the working copy's slug. Availability is enforced on publish."),
		mcp.WithString("slug",
			mcp.Description("New slug (lowercase letters, digits and hyphens)"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleSetSlug)
}

func (s *Server) handleGenerateSlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	if !req.GetBool("unique", false) {
		return textResult(s.sites.Slugs().Generate(ctx, name)), nil
	}

	exclude := req.GetString("restaurantId", "")
	value, err := s.sites.Slugs().Unique(ctx, name, exclude)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}
	return textResult(value), nil
}

func (s *Server) handleCheckSlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := requireString(req, "slug")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	res, current := sess.CheckSlug(ctx, value)
	if !current {
		return textResult("superseded by a newer check"), nil
	}
	return jsonResult(res)
}

func (s *Server) handleSetSlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := requireString(req, "slug")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, err := sess.SetSlug(ctx, value)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"restaurantId": cfg.RestaurantID, "slug": cfg.Slug})
}
