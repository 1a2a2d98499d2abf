package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/cost-atlas/pkg/server"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/auth"
	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/de-tools/cost-atlas/pkg/services/cost"
	"github.com/de-tools/cost-atlas/pkg/services/cost/analyzers"
	"github.com/de-tools/cost-atlas/pkg/services/directory"
	"github.com/de-tools/cost-atlas/pkg/services/recommendations"
	"github.com/de-tools/cost-atlas/pkg/services/registry"
	"github.com/de-tools/cost-atlas/pkg/services/validation"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo/accounts"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo/mappings"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Cost Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a YAML/JSON/TOML config file (settings may also come from COST_ATLAS_* variables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(cmd.Context())

	base, err := config.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	assumer := assume.NewAssumer(base, sts.NewFromConfig(base), assume.Settings{
		SessionName: cfg.AWS.RoleSessionName,
		Duration:    cfg.AWS.RoleDuration,
	})

	inventory, err := cost.NewRegistry(
		analyzers.NewEC2Analyzer(cfg.Cost.InventoryRegions...),
		analyzers.NewRDSAnalyzer(cfg.Cost.InventoryRegions...),
		analyzers.NewS3Analyzer(),
	)
	if err != nil {
		return fmt.Errorf("failed to register inventory analyzers: %w", err)
	}
	costService := cost.NewService(assumer, inventory, recommendations.NewService(), cost.Settings{
		TopResources: cfg.Cost.TopResources,
		TrendMonths:  cfg.Cost.TrendMonths,
	})

	storeSettings := dynamo.Settings{
		AccountsTable: cfg.DynamoDB.AccountsTable,
		MappingsTable: cfg.DynamoDB.MappingsTable,
		MaxRetries:    cfg.DynamoDB.MaxRetries,
		Backoff:       cfg.DynamoDB.Backoff,
	}
	dynamoClient := dynamo.NewClient(base)
	accountStore, err := accounts.NewStore(dynamoClient, storeSettings)
	if err != nil {
		return fmt.Errorf("failed to create account store: %w", err)
	}
	mappingStore, err := mappings.NewStore(dynamoClient, storeSettings)
	if err != nil {
		return fmt.Errorf("failed to create mapping store: %w", err)
	}

	validator := validation.New()
	registryService := registry.NewService(accountStore, mappingStore, validator, assumer, registry.Settings{
		AdminGroup: cfg.Auth.AdminGroup,
	})

	directoryService := directory.NewService(cognitoidentityprovider.NewFromConfig(base), directory.Settings{
		UserPoolID:  cfg.Auth.UserPoolID,
		AdminGroup:  cfg.Auth.AdminGroup,
		ViewerGroup: cfg.Auth.ViewerGroup,
	})

	verifier, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, auth.Settings{
		Issuer:   cfg.Auth.Issuer,
		ClientID: cfg.Auth.ClientID,
	})
	if err != nil {
		return fmt.Errorf("failed to load signing keys: %w", err)
	}

	logger.Info().
		Str("region", base.Region).
		Str("accounts_table", storeSettings.AccountsTable).
		Str("mappings_table", storeSettings.MappingsTable).
		Strs("inventory", inventory.ListServices()).
		Msg("configuration loaded")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AdminGroup:      cfg.Auth.AdminGroup,
		Dependencies: server.Dependencies{
			Cost:      costService,
			Registry:  registryService,
			Directory: directoryService,
			Verifier:  verifier,
			Validator: validator,
		},
	})
	return api.Start()
}
