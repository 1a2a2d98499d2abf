package cost

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/costoptimizationhub"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/shopspring/decimal"
)

// Analyzer lists the live inventory of one billed service, used to enrich resource records
// with status, creation date and specifications.
type Analyzer interface {
	// GetResourceType returns the Cost Explorer SERVICE dimension value the analyzer covers.
	GetResourceType() string
	CollectInventory(ctx context.Context, clients *assume.Clients) ([]normalize.RawResource, error)
}

type Recommender interface {
	ListRecommendations(
		ctx context.Context,
		client costoptimizationhub.ListRecommendationsAPIClient,
	) ([]domain.Recommendation, error)
}

// Service answers cost questions about one billing account. Every operation assumes the
// account role anew.
type Service interface {
	GetTotalMonthlyCost(ctx context.Context, creds domain.Credentials) (decimal.Decimal, error)
	GetServiceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ServiceCost, error)
	GetRegionCosts(ctx context.Context, creds domain.Credentials) ([]domain.RegionCost, error)
	// GetUserCosts never fails; attribution problems yield an empty result.
	GetUserCosts(ctx context.Context, creds domain.Credentials) ([]domain.UserCost, error)
	// GetProjectCosts never fails; attribution problems yield an empty result.
	GetProjectCosts(ctx context.Context, creds domain.Credentials) ([]domain.ProjectCost, error)
	GetResourceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ResourceCost, error)
	GetCostTrendData(ctx context.Context, creds domain.Credentials) ([]domain.TrendPoint, error)
	GetDailyCostData(ctx context.Context, creds domain.Credentials) ([]domain.DailyCost, error)
	GetWeeklyCostData(ctx context.Context, creds domain.Credentials) ([]domain.WeeklyCost, error)
	GetResourcesForService(ctx context.Context, creds domain.Credentials, serviceName string) ([]domain.ResourceDetail, error)
	GetTopSpendingResources(ctx context.Context, creds domain.Credentials) ([]domain.ResourceDetail, error)
	GetRecommendations(ctx context.Context, creds domain.Credentials) ([]domain.Recommendation, error)
	GetComprehensiveAnalysis(ctx context.Context, creds domain.Credentials) (*domain.Analysis, error)
}
