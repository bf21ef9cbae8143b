package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"storefront/internal/domain"
	"storefront/internal/theme"
)

func (s *Server) registerThemeTools() {
	// ── set_theme_color ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_theme_color",
		mcp.WithDescription("Set the site's brand colour"),
		mcp.WithString("value",
			mcp.Description("Colour value, e.g. #b3261e"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleSetThemeColor)

	// ── set_palette_color ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_palette_color",
		mcp.WithDescription("Set the colour of a semantic palette role. Roles: "+strings.Join(domain.PaletteRoles, ", ")),
		mcp.WithString("role",
			mcp.Description("Palette role"),
			mcp.Required(),
		),
		mcp.WithString("value",
			mcp.Description("Colour value"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleSetPaletteColor)

	// ── set_typography ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_typography",
		mcp.WithDescription("Set the heading or body font"),
		mcp.WithString("token",
			mcp.Description("heading or body"),
			mcp.Required(),
		),
		mcp.WithString("font",
			mcp.Description("Font family reference"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleSetTypography)

	// ── resolve_color ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resolve_color",
		mcp.WithDescription("Resolve a colour value against the open site's palette. Role names map to the palette; anything else is a literal."),
		mcp.WithString("value",
			mcp.Description("Role name or literal colour"),
			mcp.Required(),
		),
		restaurantArg(),
	), s.handleResolveColor)

	// ── save_theme ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_theme",
		mcp.WithDescription("Persist only the theme colour and global styles, leaving the published layout untouched"),
		restaurantArg(),
	), s.handleSaveTheme)
}

type themeView struct {
	ThemeColor   string              `json:"themeColor"`
	GlobalStyles domain.GlobalStyles `json:"globalStyles"`
}

func toThemeView(cfg *domain.SiteConfiguration) themeView {
	return themeView{ThemeColor: cfg.ThemeColor, GlobalStyles: cfg.GlobalStyles}
}

func (s *Server) handleSetThemeColor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := requireString(req, "value")
	if err != nil {
		return nil, err
	}
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	return jsonResult(toThemeView(sess.SetThemeColor(ctx, value)))
}

func (s *Server) handleSetPaletteColor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	role, err := requireString(req, "role")
	if err != nil {
		return nil, err
	}
	value := req.GetString("value", "")
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, err := sess.SetPaletteColor(ctx, role, value)
	if err != nil {
		return nil, err
	}
	return jsonResult(toThemeView(cfg))
}

func (s *Server) handleSetTypography(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := requireString(req, "token")
	if err != nil {
		return nil, err
	}
	font := req.GetString("font", "")
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	cfg, err := sess.SetTypography(ctx, token, font)
	if err != nil {
		return nil, err
	}
	return jsonResult(toThemeView(cfg))
}

func (s *Server) handleResolveColor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value := req.GetString("value", "")
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	resolved, ok := theme.Resolve(value, sess.Snapshot().GlobalStyles)
	return jsonResult(map[string]any{
		"value":    value,
		"isRole":   theme.IsRole(value),
		"defined":  ok,
		"resolved": resolved,
	})
}

func (s *Server) handleSaveTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(req)
	if err != nil {
		return nil, err
	}
	saved, err := sess.SaveTheme(ctx)
	if err != nil {
		return nil, fmt.Errorf("save theme: %w", err)
	}
	return jsonResult(toThemeView(saved))
}
