package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/app"
	"storefront/internal/slug"
)

type slugOptions struct {
	unique    bool
	exclude   string
	localOnly bool
}

func newSlugCmd(flags *rootFlags) *cobra.Command {
	opts := &slugOptions{}

	cmd := &cobra.Command{
		Use:   "slug <name>",
		Short: "Derive a URL slug from a restaurant name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.localOnly {
				fmt.Fprintln(cmd.OutOrStdout(), slug.Normalize(args[0]))
				return nil
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				svc := a.Sites().Slugs()
				out := svc.Generate(ctx, args[0])
				if opts.unique {
					var err error
					if out, err = svc.Unique(ctx, args[0], opts.exclude); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.unique, "unique", false, "Append a numeric suffix until the slug is free")
	cmd.Flags().StringVar(&opts.exclude, "restaurant", "", "Restaurant whose own slug counts as free")
	cmd.Flags().BoolVar(&opts.localOnly, "local", false, "Normalize only, without consulting the store")

	return cmd
}

type navOptions struct {
	jsonOutput bool
}

func newNavCmd(flags *rootFlags) *cobra.Command {
	opts := &navOptions{}

	cmd := &cobra.Command{
		Use:   "nav <slug>",
		Short: "Print the navigation of a published storefront",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				links, err := a.Sites().Navigation(ctx, args[0])
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(links)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, l := range links {
					fmt.Fprintf(w, "%s\t%s\n", l.Label, l.URL)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func newCatalogCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the registered block types and their variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TYPE\tLABEL\tNAV\tVARIANTS")
				for _, def := range a.Registry().Definitions() {
					nav := "yes"
					if a.Registry().HiddenFromNav(def.Type) {
						nav = "no"
					}
					variants := "-"
					for i, v := range def.Variants {
						if i == 0 {
							variants = v.Name
						} else {
							variants += "," + v.Name
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Type, def.Label, nav, variants)
				}
				return w.Flush()
			})
		},
	}
}

func newOnboardCmd(flags *rootFlags) *cobra.Command {
	var slugHint string

	cmd := &cobra.Command{
		Use:   "onboard <restaurant-id> <name>",
		Short: "Create the starter storefront of a restaurant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				cfg, err := a.Sites().Onboard(ctx, args[0], args[1], slugHint)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s published at /%s (%d blocks)\n", cfg.RestaurantID, cfg.Slug, len(cfg.Layout))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&slugHint, "slug", "", "Preferred slug (defaults to one derived from the name)")

	return cmd
}
