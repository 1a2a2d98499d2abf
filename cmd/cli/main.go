package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/cost-atlas/pkg/runtime/terminal"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/de-tools/cost-atlas/pkg/services/cost"
	"github.com/de-tools/cost-atlas/pkg/services/cost/analyzers"
	"github.com/de-tools/cost-atlas/pkg/services/recommendations"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COST_ATLAS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Warnings from degraded lookups go to stderr so reports stay clean on stdout.
	logger, err := config.NewLogger(config.LogConfig{Level: "warn", Console: true}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	profiles, err := config.NewRegistry(config.SharedFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := terminal.NewCLI(terminal.Options{
		Factory: func(ctx context.Context, profile string) (cost.Service, error) {
			settings := cfg.AWS
			if profile != "" {
				settings.Profile = profile
			}
			base, err := config.LoadAWSConfig(ctx, settings)
			if err != nil {
				return nil, err
			}

			assumer := assume.NewAssumer(base, sts.NewFromConfig(base), assume.Settings{
				SessionName: settings.RoleSessionName,
				Duration:    settings.RoleDuration,
			})
			inventory, err := cost.NewRegistry(
				analyzers.NewEC2Analyzer(cfg.Cost.InventoryRegions...),
				analyzers.NewRDSAnalyzer(cfg.Cost.InventoryRegions...),
				analyzers.NewS3Analyzer(),
			)
			if err != nil {
				return nil, err
			}
			return cost.NewService(assumer, inventory, recommendations.NewService(), cost.Settings{
				TopResources: cfg.Cost.TopResources,
				TrendMonths:  cfg.Cost.TrendMonths,
			}), nil
		},
		Profiles: profiles,
		Output:   os.Stdout,
	})

	if err := cli.Execute(logger.WithContext(context.Background())); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
