// Package recommendations reads cost optimization recommendations for an account from Cost
// Optimization Hub.
package recommendations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costoptimizationhub"
	"github.com/aws/aws-sdk-go-v2/service/costoptimizationhub/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/shopspring/decimal"
)

var (
	highSavings   = decimal.NewFromInt(100)
	mediumSavings = decimal.NewFromInt(20)
)

var (
	actionTypes = []string{
		"Rightsize", "Stop", "Upgrade", "PurchaseSavingsPlans",
		"PurchaseReservedInstances", "MigrateToGraviton",
	}
	implementationEfforts = []string{"VeryLow", "Low", "Medium", "High", "VeryHigh"}
	resourceTypes         = []string{
		"Ec2Instance", "LambdaFunction", "EbsVolume", "EcsService",
		"Ec2AutoScalingGroup", "Ec2InstanceSavingsPlans", "ComputeSavingsPlans",
		"SageMakerSavingsPlans", "Ec2ReservedInstances", "RdsReservedInstances",
		"OpenSearchReservedInstances", "RedshiftReservedInstances", "ElastiCacheReservedInstances",
	}
)

type Service struct {
	filter *types.Filter
}

func NewService() *Service {
	filter := &types.Filter{}
	for _, a := range actionTypes {
		filter.ActionTypes = append(filter.ActionTypes, types.ActionType(a))
	}
	for _, e := range implementationEfforts {
		filter.ImplementationEfforts = append(filter.ImplementationEfforts, types.ImplementationEffort(e))
	}
	for _, r := range resourceTypes {
		filter.ResourceTypes = append(filter.ResourceTypes, types.ResourceType(r))
	}
	return &Service{filter: filter}
}

// ListRecommendations returns every recommendation, largest monthly savings first.
func (s *Service) ListRecommendations(
	ctx context.Context,
	client costoptimizationhub.ListRecommendationsAPIClient,
) ([]domain.Recommendation, error) {
	if client == nil {
		return nil, fmt.Errorf("cost optimization hub client is not configured")
	}

	paginator := costoptimizationhub.NewListRecommendationsPaginator(client, &costoptimizationhub.ListRecommendationsInput{
		Filter:                    s.filter,
		IncludeAllRecommendations: aws.Bool(true),
	})

	recs := make([]domain.Recommendation, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list recommendations: %w", err)
		}
		for _, item := range page.Items {
			recs = append(recs, MapRecommendation(item))
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if c := recs[i].PotentialSavings.Cmp(recs[j].PotentialSavings); c != 0 {
			return c > 0
		}
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}

// SeverityFor grades a recommendation by its estimated monthly savings in USD.
func SeverityFor(savings decimal.Decimal) domain.Severity {
	switch {
	case savings.GreaterThanOrEqual(highSavings):
		return domain.SeverityHigh
	case savings.GreaterThanOrEqual(mediumSavings):
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func MapRecommendation(item types.Recommendation) domain.Recommendation {
	savings := money(item.EstimatedMonthlySavings)
	rec := domain.Recommendation{
		ID:                   aws.ToString(item.RecommendationId),
		Type:                 aws.ToString(item.ActionType),
		Severity:             SeverityFor(savings),
		Resource:             aws.ToString(item.ResourceId),
		ResourceARN:          aws.ToString(item.ResourceArn),
		ResourceType:         aws.ToString(item.CurrentResourceType),
		Region:               aws.ToString(item.Region),
		PotentialSavings:     savings,
		EstimatedMonthlyCost: money(item.EstimatedMonthlyCost),
		SavingsPercentage:    money(item.EstimatedSavingsPercentage),
		ImplementationEffort: aws.ToString(item.ImplementationEffort),
		LastActivity:         item.LastRefreshTimestamp,
		RestartNeeded:        aws.ToBool(item.RestartNeeded),
		RollbackPossible:     aws.ToBool(item.RollbackPossible),
	}
	if rec.Resource == "" {
		rec.Resource = normalize.CanonicalKey(rec.ResourceARN)
	}
	rec.Action = action(rec.Type, aws.ToString(item.RecommendedResourceSummary))
	rec.Description = describe(rec, aws.ToString(item.CurrentResourceSummary), aws.ToString(item.RecommendedResourceSummary))
	return rec
}

func money(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v).Round(normalize.CostPrecision)
}

func action(actionType, recommended string) string {
	var text string
	switch actionType {
	case "Rightsize":
		text = "Rightsize"
	case "Stop":
		return "Stop the idle resource"
	case "Upgrade":
		text = "Upgrade"
	case "PurchaseSavingsPlans":
		text = "Purchase a Savings Plan"
	case "PurchaseReservedInstances":
		text = "Purchase Reserved Instances"
	case "MigrateToGraviton":
		text = "Migrate to Graviton"
	default:
		text = actionType
	}
	if recommended != "" {
		return fmt.Sprintf("%s (%s)", text, recommended)
	}
	return text
}

func describe(rec domain.Recommendation, current, recommended string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", rec.Type, rec.ResourceType, rec.Resource)
	if current != "" && recommended != "" && current != recommended {
		fmt.Fprintf(&b, " from %s to %s", current, recommended)
	}
	if rec.PotentialSavings.IsPositive() {
		fmt.Fprintf(&b, " to save $%s per month", rec.PotentialSavings.StringFixed(2))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
