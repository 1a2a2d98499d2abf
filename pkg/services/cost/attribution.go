package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/estimate"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type tagBucket struct {
	value string
	cost  decimal.Decimal
	count int
}

func (s *service) GetUserCosts(ctx context.Context, creds domain.Credentials) ([]domain.UserCost, error) {
	key, buckets := s.attribute(ctx, creds, normalize.OwnerTagKeys, "user")

	costs := make([]domain.UserCost, 0, len(buckets))
	for _, b := range buckets {
		costs = append(costs, domain.UserCost{User: b.value, TagKey: key, Cost: round(b.cost), ResourceCount: b.count})
	}
	return byCost(costs,
		func(c domain.UserCost) decimal.Decimal { return c.Cost },
		func(c domain.UserCost) string { return c.User }), nil
}

func (s *service) GetProjectCosts(ctx context.Context, creds domain.Credentials) ([]domain.ProjectCost, error) {
	key, buckets := s.attribute(ctx, creds, normalize.ProjectTagKeys, "project")

	costs := make([]domain.ProjectCost, 0, len(buckets))
	for _, b := range buckets {
		costs = append(costs, domain.ProjectCost{Project: b.value, TagKey: key, Cost: round(b.cost), ResourceCount: b.count})
	}
	return byCost(costs,
		func(c domain.ProjectCost) decimal.Decimal { return c.Cost },
		func(c domain.ProjectCost) string { return c.Project }), nil
}

// attribute logs failures and reports them as no attribution.
func (s *service) attribute(
	ctx context.Context,
	creds domain.Credentials,
	keys []string,
	dimension string,
) (string, []tagBucket) {
	logger := zerolog.Ctx(ctx).With().
		Str("account_id", creds.AccountID).
		Str("dimension", dimension).
		Logger()

	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		logger.Warn().Err(err).Msg("tag attribution unavailable")
		return "", nil
	}

	key, buckets, err := attributeByTag(ctx, clients.Tagging, keys)
	if err != nil {
		logger.Warn().Err(err).Msg("tag attribution unavailable")
		return "", nil
	}
	return key, buckets
}

// attributeByTag tries the tag keys in order and groups the resources of the first key
// that matches anything by tag value. Each resource contributes its estimated monthly cost.
func attributeByTag(
	ctx context.Context,
	client resourcegroupstaggingapi.GetResourcesAPIClient,
	keys []string,
) (string, []tagBucket, error) {
	for _, key := range keys {
		mappings, err := listTagged(ctx, client, []taggingtypes.TagFilter{{Key: aws.String(key)}}, nil)
		if err != nil {
			return "", nil, err
		}
		if len(mappings) == 0 {
			continue
		}

		byValue := make(map[string]*tagBucket)
		order := make([]string, 0)
		for _, m := range mappings {
			value := tagOf(m, key)
			if value == "" {
				continue
			}
			b, ok := byValue[value]
			if !ok {
				b = &tagBucket{value: value, cost: decimal.Zero}
				byValue[value] = b
				order = append(order, value)
			}
			b.cost = b.cost.Add(estimate.MonthlyCost(aws.ToString(m.ResourceARN)))
			b.count++
		}

		buckets := make([]tagBucket, 0, len(order))
		for _, v := range order {
			buckets = append(buckets, *byValue[v])
		}
		return key, buckets, nil
	}
	return "", nil, nil
}

func listTagged(
	ctx context.Context,
	client resourcegroupstaggingapi.GetResourcesAPIClient,
	tagFilters []taggingtypes.TagFilter,
	resourceTypes []string,
) ([]taggingtypes.ResourceTagMapping, error) {
	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(client, &resourcegroupstaggingapi.GetResourcesInput{
		TagFilters:          tagFilters,
		ResourceTypeFilters: resourceTypes,
	})

	var mappings []taggingtypes.ResourceTagMapping
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tagged resources: %w", err)
		}
		mappings = append(mappings, page.ResourceTagMappingList...)
	}
	return mappings, nil
}

func tagOf(m taggingtypes.ResourceTagMapping, key string) string {
	for _, t := range m.Tags {
		if aws.ToString(t.Key) == key {
			return aws.ToString(t.Value)
		}
	}
	return ""
}
