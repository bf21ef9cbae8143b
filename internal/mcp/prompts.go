package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("compose_storefront",
		mcp.WithPromptDescription("Guide through composing and publishing a restaurant storefront"),
		mcp.WithArgument("restaurantId",
			mcp.ArgumentDescription("Restaurant whose storefront to compose"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("cuisine",
			mcp.ArgumentDescription("Cuisine or style of the restaurant, used to pick copy and colours"),
		),
	), s.handleComposePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("restyle_storefront",
		mcp.WithPromptDescription("Rework the palette and typography of an existing storefront"),
		mcp.WithArgument("slug",
			mcp.ArgumentDescription("Slug of the published storefront"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("mood",
			mcp.ArgumentDescription("Desired look, e.g. warm, minimal, bold"),
			mcp.RequiredArgument(),
		),
	), s.handleRestylePrompt)
}

func (s *Server) handleComposePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	rid := req.Params.Arguments["restaurantId"]
	cuisine := req.Params.Arguments["cuisine"]
	if cuisine == "" {
		cuisine = "general"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compose the storefront of %s", rid),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Compose the storefront of restaurant "%s" (cuisine: %s). Follow these steps:

1. Call open_site with restaurantId "%s", then read the storefront://catalog resource to see the block types and their variants
2. Use get_layout to inspect the current blocks
3. Arrange the page with add_block, move_block_up, move_block_down and remove_block. Keep a banner first and a footer last
4. Fill in copy with update_block_props. Colour props accept palette roles (primary, surface, text, ...) or literal colours
5. Try apply_variant where a preset fits better than hand-tuned props
6. Check the result with preview at the mobile and desktop viewports, and get_navigation for the menu links
7. Pick a slug with generate_slug and check_slug, set it with set_slug, then publish_site

If an edit goes wrong, use undo.`, rid, cuisine, rid),
				},
			},
		},
	}, nil
}

func (s *Server) handleRestylePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	slugValue := req.Params.Arguments["slug"]
	mood := req.Params.Arguments["mood"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Restyle %s", slugValue),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Restyle the storefront "%s" to feel %s. Follow these steps:

1. Call open_site with slug "%s"
2. Set each palette role with set_palette_color, keeping enough contrast between primary/onPrimary and background/text
3. Choose heading and body fonts with set_typography
4. Use resolve_color to confirm how block colours resolve, and preview to review the page
5. Save with save_theme to keep the published layout as it is, or publish_site to publish everything`, slugValue, mood, slugValue),
				},
			},
		},
	}, nil
}
