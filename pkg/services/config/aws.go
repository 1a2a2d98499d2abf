package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const DefaultRegion = "us-east-1" // Cost Explorer and Cost Optimization Hub are served from here

// LoadAWSConfig builds the base SDK config the service runs with. An empty profile uses the
// default credential chain.
func LoadAWSConfig(ctx context.Context, settings AWSConfig) (aws.Config, error) {
	region := settings.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithDefaultRegion(region),
	}
	if settings.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(settings.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("invalid AWS credentials for profile %q: %w", settings.Profile, err)
	}
	return cfg, nil
}
