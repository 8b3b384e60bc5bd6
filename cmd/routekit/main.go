package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/routekit-dev/routekit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "routekit",
		Short: "Manifest-driven route trees for data-loading navigation",
		Long: `Routekit turns a directory of route modules into a flat route
manifest and a navigable route tree with per-route data operations.

Commands:
  • build   — generate routes.json and fingerprinted style assets
  • dev     — watch routes and serve the manifest with hot reload
  • routes  — print the folded route tree for a manifest
  • version — print version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		buildCmd(),
		devCmd(),
		routesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", errors.Format(err))
		os.Exit(1)
	}
}
