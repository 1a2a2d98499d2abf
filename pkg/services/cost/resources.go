package cost

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/estimate"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Cost Explorer groups usage that is not tied to a resource under this key.
const noResourceID = "NoResourceId"

func (s *service) GetResourceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ResourceCost, error) {
	details, err := s.taggedInventory(ctx, creds)
	if err != nil {
		return nil, err
	}

	costs := make([]domain.ResourceCost, 0, len(details))
	for _, d := range details {
		if !d.Cost.IsPositive() {
			continue
		}
		costs = append(costs, domain.ResourceCost{
			ResourceID: d.ID,
			Name:       d.Name,
			Type:       d.Type,
			Service:    d.Service,
			Region:     d.Region,
			Cost:       d.Cost,
			Estimated:  d.CostEstimated,
		})
	}
	return costs, nil
}

func (s *service) GetTopSpendingResources(ctx context.Context, creds domain.Credentials) ([]domain.ResourceDetail, error) {
	details, err := s.taggedInventory(ctx, creds)
	if err != nil {
		return nil, err
	}

	top := make([]domain.ResourceDetail, 0, s.topN)
	for _, d := range details {
		if len(top) == s.topN {
			break
		}
		if d.Cost.IsPositive() {
			top = append(top, d)
		}
	}
	return top, nil
}

// taggedInventory lists every tagged resource of the account with estimated costs,
// normalized and ordered by cost.
func (s *service) taggedInventory(ctx context.Context, creds domain.Credentials) ([]domain.ResourceDetail, error) {
	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	mappings, err := listTagged(ctx, clients.Tagging, nil, nil)
	if err != nil {
		return nil, err
	}

	raws := make([]normalize.RawResource, 0, len(mappings))
	for _, m := range mappings {
		raws = append(raws, normalize.FromTagMapping(m, estimate.MonthlyCost(aws.ToString(m.ResourceARN)), true))
	}
	return normalize.Normalize(raws), nil
}

// GetResourcesForService merges three sources for one billed service: resource-level
// costs from Cost Explorer, tags and names from the tagging API, and live inventory from
// the service's analyzer. When resource-level costs are unavailable the tagged resources
// carry estimates instead.
func (s *service) GetResourcesForService(
	ctx context.Context,
	creds domain.Credentials,
	serviceName string,
) ([]domain.ResourceDetail, error) {
	svc := resolveService(serviceName)
	if svc == "" {
		return nil, domain.NewValidationError("serviceName", "serviceName is required")
	}

	logger := zerolog.Ctx(ctx).With().
		Str("account_id", creds.AccountID).
		Str("service", svc).
		Logger()

	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	raws, err := s.billedResources(ctx, clients.CostExplorer, svc)
	if err != nil {
		var unavailable *types.DataUnavailableException
		if !errors.As(err, &unavailable) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("resource-level costs unavailable, using estimates")
	}
	estimated := len(raws) == 0

	if resourceTypes, ok := serviceResourceTypes[svc]; ok {
		mappings, err := listTagged(ctx, clients.Tagging, nil, resourceTypes)
		if err != nil {
			return nil, err
		}
		for _, m := range mappings {
			cost := decimal.Zero
			if estimated {
				cost = estimate.MonthlyCost(aws.ToString(m.ResourceARN))
			}
			raw := normalize.FromTagMapping(m, cost, estimated)
			raw.Service = svc
			raws = append(raws, raw)
		}
	}

	if analyzer, ok := s.analyzers.Get(svc); ok {
		inventory, err := analyzer.CollectInventory(ctx, clients)
		if err != nil {
			logger.Warn().Err(err).Msg("inventory enrichment failed")
		}
		raws = append(raws, inventory...)
	}

	return normalize.Normalize(raws), nil
}

// billedResources returns one raw record per resource and day over the resource-level
// retention window.
func (s *service) billedResources(
	ctx context.Context,
	client assume.CostExplorerAPI,
	svc string,
) ([]normalize.RawResource, error) {
	input := &costexplorer.GetCostAndUsageWithResourcesInput{
		TimePeriod:  dateInterval(TrailingDays(s.now(), resourceWindowDays)),
		Granularity: types.GranularityDaily,
		Metrics:     []string{unblendedCost},
		Filter:      costFilter(serviceFilter(svc)),
		GroupBy:     groupBy(types.DimensionResourceId),
	}

	var raws []normalize.RawResource
	for {
		out, err := client.GetCostAndUsageWithResources(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage with resources: %w", err)
		}

		for _, result := range out.ResultsByTime {
			for _, g := range result.Groups {
				if len(g.Keys) == 0 || g.Keys[0] == "" || g.Keys[0] == noResourceID {
					continue
				}
				m, ok := g.Metrics[unblendedCost]
				if !ok {
					continue
				}
				raw, err := normalize.FromCostGroup(g.Keys[0], svc, aws.ToString(m.Amount))
				if err != nil {
					return nil, err
				}
				raws = append(raws, raw)
			}
		}

		if aws.ToString(out.NextPageToken) == "" {
			return raws, nil
		}
		next := *input
		next.NextPageToken = out.NextPageToken
		input = &next
	}
}
