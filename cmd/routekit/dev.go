package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/routekit-dev/routekit/internal/config"
	"github.com/routekit-dev/routekit/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with manifest hot reload.

The dev server watches the routes directory, rebuilds the route
manifest on change, and notifies connected clients over WebSocket.

Endpoints:
  • /routes.json       — the current route manifest
  • /__routekit/tree   — the folded route tree
  • /__routekit/reload — WebSocket reload channel

Examples:
  routekit dev
  routekit dev --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from routekit.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from routekit.json)")

	return cmd
}

func runDev(port int, host string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	srv, err := dev.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
