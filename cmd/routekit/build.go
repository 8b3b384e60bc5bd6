package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/routekit-dev/routekit/internal/build"
	"github.com/routekit-dev/routekit/internal/config"
	"github.com/routekit-dev/routekit/pkg/publish"
)

func buildCmd() *cobra.Command {
	var (
		output    string
		routesDir string
		doPublish bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the route manifest and style assets",
		Long: `Generate routes.json and the fingerprinted stylesheet assets.

This command:
  • Scans the routes directory into a flat route manifest
  • Fingerprints stylesheets and writes assets.json
  • Optionally publishes the output to S3 (--publish)

Examples:
  routekit build
  routekit build --output=dist
  routekit build --publish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), output, routesDir, doPublish)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from routekit.json)")
	cmd.Flags().StringVar(&routesDir, "routes", "", "Routes directory (default from routekit.json)")
	cmd.Flags().BoolVar(&doPublish, "publish", false, "Publish build output to the configured S3 bucket")

	return cmd
}

func runBuild(ctx context.Context, output, routesDir string, doPublish bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output = output
	}
	if routesDir != "" {
		cfg.Routes = routesDir
	}

	res, err := build.Build(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d routes → %s\n", res.Manifest.Len(), res.ManifestPath)
	fmt.Printf("✓ %d stylesheets → %s\n", res.Assets.Len(), res.AssetsPath)
	fmt.Printf("  done in %s\n", res.Duration.Round(1e6))

	if !doPublish {
		return nil
	}
	if cfg.Publish.Bucket == "" {
		return fmt.Errorf("publish requested but no bucket configured in routekit.json")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Publish.Region))
	if err != nil {
		return err
	}
	store := publish.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Publish.Bucket, cfg.Publish.Prefix)
	if err := publish.Dir(ctx, store, cfg.Output); err != nil {
		return err
	}
	fmt.Printf("✓ published %s to s3://%s/%s\n", cfg.Output, cfg.Publish.Bucket, cfg.Publish.Prefix)
	return nil
}
