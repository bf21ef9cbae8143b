package mcpserver

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"storefront/internal/service"
)

// Server is the MCP server for storefront editing.
// It exposes tools, resources, and prompts so an agent can compose and publish a storefront.
type Server struct {
	mcp    *server.MCPServer
	sites  *service.SiteService
	logger *zap.Logger

	// Session the tools act on when no restaurantId is passed (set by open_site).
	mu               sync.Mutex
	activeRestaurant string
}

// Deps holds the dependencies passed from the command layer to the MCP server.
type Deps struct {
	Sites   *service.SiteService
	Logger  *zap.Logger
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{sites: deps.Sites, logger: deps.Logger.Named("mcp")}

	s.mcp = server.NewMCPServer(
		"storefront-mcp",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSiteTools()
	s.registerBlockTools()
	s.registerThemeTools()
	s.registerSlugTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActive(restaurantID string) {
	s.mu.Lock()
	s.activeRestaurant = restaurantID
	s.mu.Unlock()
}

// resolveSession returns the session named by restaurantId in the tool args,
// falling back to the site opened last.
func (s *Server) resolveSession(req mcp.CallToolRequest) (*service.Session, error) {
	rid := req.GetString("restaurantId", "")
	if rid == "" {
		s.mu.Lock()
		rid = s.activeRestaurant
		s.mu.Unlock()
	}
	if rid == "" {
		return nil, fmt.Errorf("no restaurantId provided and no site open (use open_site first)")
	}
	return s.sites.Session(rid)
}

// requireString fetches a mandatory string argument.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func boolPtr(v bool) *bool { return &v }

// restaurantArg is the optional session selector shared by the editing tools.
func restaurantArg() mcp.ToolOption {
	return mcp.WithString("restaurantId",
		mcp.Description("Restaurant whose open session to edit (optional, defaults to the site opened last)"),
	)
}
