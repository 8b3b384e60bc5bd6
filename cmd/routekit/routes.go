package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routekit-dev/routekit/internal/build"
	"github.com/routekit-dev/routekit/internal/config"
	"github.com/routekit-dev/routekit/pkg/manifest"
	"github.com/routekit-dev/routekit/pkg/routetree"
)

// printNode is the CLI's tree node shape for `routekit routes`.
type printNode struct {
	id       string
	path     string
	index    bool
	children []*printNode
}

func (n *printNode) RoutePath() string                 { return n.path }
func (n *printNode) SetRoutePath(path string)          { n.path = path }
func (n *printNode) SetChildren(children []*printNode) { n.children = children }

func routesCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the folded route tree",
		Long: `Print the hierarchical route tree for the project.

Reads routes.json when --manifest is given, otherwise scans the
routes directory. Siblings colliding on the same path segment are
shown under their synthetic folder ancestor, exactly as the data
engine will see them at runtime.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(manifestPath)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to an existing routes.json")

	return cmd
}

func runRoutes(manifestPath string) error {
	var (
		m   *manifest.Manifest
		err error
	)
	if manifestPath != "" {
		m, err = manifest.Load(manifestPath)
	} else {
		cfg, cfgErr := config.Load(".")
		if cfgErr != nil {
			return cfgErr
		}
		m, err = build.Manifest(cfg.Routes)
	}
	if err != nil {
		return err
	}

	roots := routetree.Build(m,
		func(rec *manifest.Record) *printNode {
			return &printNode{id: rec.ID, path: rec.Path, index: rec.Index}
		},
		func(path string) *printNode {
			return &printNode{id: routetree.FolderID(path), path: path}
		},
	)

	for _, root := range roots {
		printTree(root, 0)
	}
	return nil
}

func printTree(n *printNode, depth int) {
	label := n.path
	switch {
	case n.index:
		label = "(index)"
	case label == "":
		label = "(pathless)"
	}
	fmt.Printf("%s%-24s %s\n", strings.Repeat("  ", depth), label, n.id)
	for _, child := range n.children {
		printTree(child, depth+1)
	}
}
