package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logging"
)

type rootFlags struct {
	catalogFile string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Compose, preview and publish restaurant storefronts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.catalogFile, "catalog", "", "Block catalog YAML (overrides STOREFRONT_CATALOG_FILE)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeMCPCmd(flags))
	cmd.AddCommand(newSlugCmd(flags))
	cmd.AddCommand(newNavCmd(flags))
	cmd.AddCommand(newCatalogCmd(flags))
	cmd.AddCommand(newOnboardCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.catalogFile != "" {
		cfg.CatalogFile = flags.catalogFile
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// withApp starts the storefront components for one command and tears them
// down afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, run func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "storefront")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.Shutdown()
	return run(ctx, a)
}
