package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"storefront/internal/domain"
	"storefront/internal/service"
)

func (s *Server) registerSiteTools() {
	// ── open_site ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_site",
		mcp.WithDescription("Open an editing session for a storefront. Later tools default to this site."),
		mcp.WithString("slug",
			mcp.Description("Public slug of the storefront"),
		),
		mcp.WithString("restaurantId",
			mcp.Description("Restaurant id, used when the site has no slug yet"),
		),
	), s.handleOpenSite)

	// ── get_layout ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_layout",
		mcp.WithDescription("Return the working layout of the open site, including block props"),
		restaurantArg(),
	), s.handleGetLayout)

	// ── get_navigation ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_navigation",
		mcp.WithDescription("Return the navigation links derived from a layout. With slug, reads the published site; otherwise the working copy."),
		mcp.WithString("slug",
			mcp.Description("Published slug to read (optional)"),
		),
		restaurantArg(),
	), s.handleGetNavigation)

	// ── preview ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview",
		mcp.WithDescription("Render the working copy, including inactive blocks, at a viewport"),
		mcp.WithString("viewport",
			mcp.Description("desktop, tablet, mobile, or empty for the unconstrained view; omit to keep the current one"),
		),
		restaurantArg(),
	), s.handlePreview)

	// ── render_public ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_public",
		mcp.WithDescription("Render the published page as visitors see it"),
		mcp.WithString("slug",
			mcp.Description("Public slug of the storefront"),
			mcp.Required(),
		),
	), s.handleRenderPublic)

	// ── publish_site ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_site",
		mcp.WithDescription("Validate the slug and save the working copy as the published site"),
		restaurantArg(),
	), s.handlePublishSite)

	// ── get_edit_history ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_edit_history",
		mcp.WithDescription("Return the edit journal of the open site and the undo/redo depth"),
		restaurantArg(),
	), s.handleGetEditHistory)
}

// layoutResult summarizes the session's working copy after an edit.
func layoutResult(sess *service.Session, cfg *domain.SiteConfiguration, withProps bool) (*mcp.CallToolResult, error) {
	v := summarizeLayout(cfg, sess.Navigation(), withProps)
	v.Dirty = sess.Dirty()
	v.Viewport = sess.Viewport()
	return jsonResult(v)
}

func (s *Server) handleOpenSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slugValue := req.GetString("slug", "")
	rid := req.GetString("restaurantId", "")

	var (
		sess *service.Session
		err  error
	)
	switch {
	case slugValue != "":
		sess, err = s.sites.Open(ctx, slugValue)
	case rid != "":
		sess, err = s.sites.OpenByRestaurant(ctx, rid)
	default:
		return nil, fmt.Errorf("slug or restaurantId is required")
	}
	if err != nil {
		return nil, fmt.Errorf("open site: %w", err)
	}
	s.setActive(sess.RestaurantID())
	return layoutResult(sess, sess.Snapshot(), false)
}

func (s *Server) handleGetLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, sess.Snapshot(), true)
}

func (s *Server) handleGetNavigation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if slugValue := req.GetString("slug", ""); slugValue != "" {
		links, err := s.sites.Navigation(ctx, slugValue)
		if err != nil {
			return nil, fmt.Errorf("navigation: %w", err)
		}
		return jsonResult(links)
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return jsonResult(sess.Navigation())
}

func (s *Server) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	if args := req.GetArguments(); args["viewport"] != nil {
		if err := sess.SetViewport(domain.Viewport(req.GetString("viewport", ""))); err != nil {
			return nil, err
		}
	}
	return jsonResult(sess.Preview())
}

func (s *Server) handleRenderPublic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slugValue, err := requireString(req, "slug")
	if err != nil {
		return nil, err
	}
	page, err := s.sites.Public(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return jsonResult(page)
}

func (s *Server) handlePublishSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	saved, err := sess.Publish(ctx)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	return jsonResult(map[string]any{
		"restaurantId": saved.RestaurantID,
		"slug":         saved.Slug,
		"updatedAt":    saved.UpdatedAt,
	})
}

func (s *Server) handleGetEditHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	tree, err := sess.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	type nodeSummary struct {
		ID       string  `json:"id"`
		ParentID *string `json:"parentId,omitempty"`
		Label    string  `json:"label"`
		Current  bool    `json:"current,omitempty"`
	}
	out := struct {
		UndoDepth int           `json:"undoDepth"`
		RedoDepth int           `json:"redoDepth"`
		Nodes     []nodeSummary `json:"nodes"`
	}{UndoDepth: sess.UndoDepth(), RedoDepth: sess.RedoDepth(), Nodes: []nodeSummary{}}
	if tree != nil {
		for _, n := range tree.Nodes {
			out.Nodes = append(out.Nodes, nodeSummary{
				ID: n.ID, ParentID: n.ParentID, Label: n.Label, Current: n.ID == tree.CurrentID,
			})
		}
	}
	return jsonResult(out)
}
