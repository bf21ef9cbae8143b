package main

import (
	"context"

	"github.com/spf13/cobra"

	"storefront/internal/app"
)

func newServeMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the storefront editing tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				return a.ServeMCP(ctx, version)
			})
		},
	}
}
