// Package assume obtains short-lived credentials for a billing account by assuming its
// read-only role and builds the service clients used to query that account.
package assume

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costoptimizationhub"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

const (
	DefaultSessionName = "cost-atlas"
	DefaultDuration    = 15 * time.Minute

	// Cost Optimization Hub is only served from us-east-1.
	OptimizationHubRegion = "us-east-1"
)

var errEmptyAssumeRole = errors.New("assume role returned no credentials")

type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
	GetCostAndUsageWithResources(ctx context.Context, params *costexplorer.GetCostAndUsageWithResourcesInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageWithResourcesOutput, error)
}

type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
}

// Clients are scoped to one assumed-role session.
type Clients struct {
	AccountID       string
	CostExplorer    CostExplorerAPI
	Tagging         resourcegroupstaggingapi.GetResourcesAPIClient
	OptimizationHub costoptimizationhub.ListRecommendationsAPIClient
	EC2             ec2.DescribeInstancesAPIClient
	RDS             rds.DescribeDBInstancesAPIClient
	S3              S3API
}

// ClientProvider hands out clients for a billing account. Implementations assume the role
// on every call; nothing is cached between calls.
type ClientProvider interface {
	Clients(ctx context.Context, creds domain.Credentials) (*Clients, error)
}

type Settings struct {
	SessionName string
	Duration    time.Duration
}

type Assumer struct {
	sts         STSAPI
	base        aws.Config
	sessionName string
	duration    time.Duration
}

func NewAssumer(base aws.Config, stsClient STSAPI, settings Settings) *Assumer {
	if settings.SessionName == "" {
		settings.SessionName = DefaultSessionName
	}
	if settings.Duration < DefaultDuration {
		settings.Duration = DefaultDuration
	}
	return &Assumer{
		sts:         stsClient,
		base:        base,
		sessionName: settings.SessionName,
		duration:    settings.Duration,
	}
}

// Config assumes the account role and returns a config carrying the temporary credentials.
func (a *Assumer) Config(ctx context.Context, creds domain.Credentials) (aws.Config, error) {
	out, err := a.assume(ctx, creds)
	if err != nil {
		return aws.Config{}, err
	}

	cfg := a.base.Copy()
	cfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		aws.ToString(out.Credentials.AccessKeyId),
		aws.ToString(out.Credentials.SecretAccessKey),
		aws.ToString(out.Credentials.SessionToken),
	))
	return cfg, nil
}

func (a *Assumer) Clients(ctx context.Context, creds domain.Credentials) (*Clients, error) {
	cfg, err := a.Config(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &Clients{
		AccountID:       creds.AccountID,
		CostExplorer:    costexplorer.NewFromConfig(cfg),
		Tagging:         resourcegroupstaggingapi.NewFromConfig(cfg),
		OptimizationHub: costoptimizationhub.NewFromConfig(cfg, func(o *costoptimizationhub.Options) {
			o.Region = OptimizationHubRegion
		}),
		EC2:             ec2.NewFromConfig(cfg),
		RDS:             rds.NewFromConfig(cfg),
		S3:              s3.NewFromConfig(cfg),
	}, nil
}

// Verify assumes the role once and checks that the session belongs to the claimed account.
func (a *Assumer) Verify(ctx context.Context, creds domain.Credentials) error {
	out, err := a.assume(ctx, creds)
	if err != nil {
		return err
	}

	if out.AssumedRoleUser == nil {
		return nil
	}
	parsed, err := arn.Parse(aws.ToString(out.AssumedRoleUser.Arn))
	if err != nil {
		return fmt.Errorf("unexpected assumed role arn %q: %w", aws.ToString(out.AssumedRoleUser.Arn), err)
	}
	if parsed.AccountID != creds.AccountID {
		return domain.NewValidationError("roleArn",
			fmt.Sprintf("role belongs to account %s, not %s", parsed.AccountID, creds.AccountID))
	}
	return nil
}

func (a *Assumer) assume(ctx context.Context, creds domain.Credentials) (*sts.AssumeRoleOutput, error) {
	out, err := a.sts.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(creds.RoleARN),
		RoleSessionName: aws.String(fmt.Sprintf("%s-%s", a.sessionName, creds.AccountID)),
		DurationSeconds: aws.Int32(int32(a.duration.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assume role %s: %w", creds.RoleARN, err)
	}
	if out == nil || out.Credentials == nil {
		return nil, fmt.Errorf("failed to assume role %s: %w", creds.RoleARN, errEmptyAssumeRole)
	}
	return out, nil
}
