package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"storefront/internal/domain"
	"storefront/internal/service"
)

func (s *Server) registerBlockTools() {
	blockID := func() mcp.ToolOption {
		return mcp.WithString("blockId",
			mcp.Description("ID of the block"),
			mcp.Required(),
		)
	}

	// ── move_block_up / move_block_down ────────────────
	s.mcp.AddTool(mcp.NewTool("move_block_up",
		mcp.WithDescription("Swap a block with the one before it. No-op at the top."),
		blockID(), restaurantArg(),
	), s.blockOp(func(ctx context.Context, sess *service.Session, id string) *domain.SiteConfiguration {
		return sess.MoveUp(ctx, id)
	}))

	s.mcp.AddTool(mcp.NewTool("move_block_down",
		mcp.WithDescription("Swap a block with the one after it. No-op at the bottom."),
		blockID(), restaurantArg(),
	), s.blockOp(func(ctx context.Context, sess *service.Session, id string) *domain.SiteConfiguration {
		return sess.MoveDown(ctx, id)
	}))

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a block right after it, with a fresh id"),
		blockID(), restaurantArg(),
	), s.blockOp(func(ctx context.Context, sess *service.Session, id string) *domain.SiteConfiguration {
		return sess.Duplicate(ctx, id)
	}))

	// ── remove_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("Remove a block from the layout. Undo restores it."),
		blockID(), restaurantArg(),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			DestructiveHint: boolPtr(true),
		}),
	), s.blockOp(func(ctx context.Context, sess *service.Session, id string) *domain.SiteConfiguration {
		return sess.Remove(ctx, id)
	}))

	// ── set_block_active ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_block_active",
		mcp.WithDescription("Show or hide a block on the public page"),
		blockID(),
		mcp.WithBoolean("active",
			mcp.Description("true to show the block, false to hide it"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleSetBlockActive)

	// ── swap_block_type ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("swap_block_type",
		mcp.WithDescription("Change a block's type in place, keeping its id and position"),
		blockID(),
		mcp.WithString("type",
			mcp.Description("Registered block type to switch to"),
			mcp.Required(),
		),
		mcp.WithBoolean("preserveProps",
			mcp.Description("Start from the new type's defaults but keep current values for keys both types define; other keys are dropped (default false)"),
		),
		restaurantArg(),
	), s.handleSwapBlockType)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a new block of a registered type with its default props"),
		mcp.WithString("type",
			mcp.Description("Registered block type"),
			mcp.Required(),
		),
		mcp.WithString("after",
			mcp.Description("Insert after this block id (optional, appends when omitted or not found)"),
		),
		restaurantArg(),
	), s.handleAddBlock)

	// ── apply_variant ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("apply_variant",
		mcp.WithDescription("Overlay a named variant of the block's type onto its props; keys the variant does not set keep their values"),
		blockID(),
		mcp.WithString("variant",
			mcp.Description("Variant name from the catalog"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleApplyVariant)

	// ── update_block_props ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_props",
		mcp.WithDescription("Merge a JSON object into a block's props. A null value removes the key."),
		blockID(),
		mcp.WithString("props",
			mcp.Description(`JSON object, e.g. {"title":"Our menu","backgroundColor":"secondary"}`),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleUpdateBlockProps)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Revert the last edit of the open site"),
		restaurantArg(),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the last undone edit"),
		restaurantArg(),
	), s.handleRedo)
}

// blockOp adapts a single-block edit into a tool handler.
func (s *Server) blockOp(op func(ctx context.Context, sess *service.Session, id string) *domain.SiteConfiguration) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireString(req, "blockId")
		if err != nil {
			return nil, err
		}
		sess, err := s.resolveSession(req)
		if err != nil {
			return nil, err
		}
		return layoutResult(sess, op(ctx, sess, id), false)
	}
}

func (s *Server) handleSetBlockActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	active, err := req.RequireBool("active")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, sess.SetActive(ctx, id, active), false)
}

func (s *Server) handleSwapBlockType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	t, err := requireString(req, "type")
	if err != nil {
		return nil, err
	}
	if !s.sites.Registry().Has(domain.BlockType(t)) {
		return nil, fmt.Errorf("unknown block type %q", t)
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg := sess.SwapType(ctx, id, domain.BlockType(t), req.GetBool("preserveProps", false))
	return layoutResult(sess, cfg, false)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := requireString(req, "type")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, id, ok := sess.Add(ctx, domain.BlockType(t), req.GetString("after", ""))
	if !ok {
		return nil, fmt.Errorf("unknown block type %q", t)
	}
	v := summarizeLayout(cfg, sess.Navigation(), false)
	v.Dirty = sess.Dirty()
	return jsonResult(struct {
		BlockID string `json:"blockId"`
		layoutView
	}{BlockID: id, layoutView: v})
}

func (s *Server) handleApplyVariant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	name, err := requireString(req, "variant")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, sess.ApplyVariant(ctx, id, name), true)
}

func (s *Server) handleUpdateBlockProps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	raw, err := requireString(req, "props")
	if err != nil {
		return nil, err
	}
	patch, err := parseProps(raw)
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, sess.UpdateProps(ctx, id, patch), true)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, err := sess.Undo(ctx)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, cfg, false)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, err := sess.Redo(ctx)
	if err != nil {
		return nil, err
	}
	return layoutResult(sess, cfg, false)
}
