package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mcpserver "storefront/internal/mcp"
)

const drainTimeout = 10 * time.Second

// ServeMCP runs the storefront as an MCP server on stdin/stdout until the
// client disconnects, then drains background work.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	if err := a.maintenance.Start(ctx); err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}

	srv := mcpserver.New(mcpserver.Deps{
		Sites:   a.sites,
		Logger:  a.logger,
		Version: version,
	})

	serveErr := srv.ServeStdio()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := a.Drain(drainCtx); err != nil {
		a.logger.Warn("drain incomplete", zap.Error(err))
	}
	if serveErr != nil {
		return fmt.Errorf("mcp server: %w", serveErr)
	}
	return nil
}
