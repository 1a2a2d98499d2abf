package cost

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/shopspring/decimal"
)

const unblendedCost = "UnblendedCost"

// Short names accepted wherever a billed service name is expected.
var supportedServices = map[string]string{
	"EC2":         "Amazon Elastic Compute Cloud - Compute",
	"S3":          "Amazon Simple Storage Service",
	"RDS":         "Amazon Relational Database Service",
	"Lambda":      "AWS Lambda",
	"DynamoDB":    "Amazon DynamoDB",
	"ElastiCache": "Amazon ElastiCache",
	"ELB":         "Amazon Elastic Load Balancing",
	"EFS":         "Amazon Elastic File System",
}

// Tagging API resource type filters per billed service.
var serviceResourceTypes = map[string][]string{
	"Amazon Elastic Compute Cloud - Compute": {"ec2:instance", "ec2:volume", "ec2:natgateway"},
	"Amazon Simple Storage Service":          {"s3"},
	"Amazon Relational Database Service":     {"rds:db", "rds:cluster"},
	"AWS Lambda":                             {"lambda:function"},
	"Amazon DynamoDB":                        {"dynamodb:table"},
	"Amazon ElastiCache":                     {"elasticache:cluster"},
	"Amazon Elastic Load Balancing":          {"elasticloadbalancing:loadbalancer"},
	"Amazon Elastic File System":             {"elasticfilesystem:file-system"},
}

// resolveService maps a short service name onto its Cost Explorer SERVICE value.
func resolveService(name string) string {
	name = strings.TrimSpace(name)
	for short, full := range supportedServices {
		if strings.EqualFold(short, name) {
			return full
		}
	}
	return name
}

func excludeCreditsAndRefunds() types.Expression {
	return types.Expression{
		Not: &types.Expression{
			Dimensions: &types.DimensionValues{
				Key:    types.DimensionRecordType,
				Values: []string{"Credit", "Refund"},
			},
		},
	}
}

func serviceFilter(service string) types.Expression {
	return types.Expression{
		Dimensions: &types.DimensionValues{
			Key:    types.DimensionService,
			Values: []string{service},
		},
	}
}

func costFilter(extra ...types.Expression) *types.Expression {
	if len(extra) == 0 {
		expr := excludeCreditsAndRefunds()
		return &expr
	}
	return &types.Expression{
		And: append(extra, excludeCreditsAndRefunds()),
	}
}

func groupBy(dimension types.Dimension) []types.GroupDefinition {
	return []types.GroupDefinition{
		{
			Type: types.GroupDefinitionTypeDimension,
			Key:  aws.String(string(dimension)),
		},
	}
}

func dateInterval(r domain.DateRange) *types.DateInterval {
	return &types.DateInterval{
		Start: aws.String(r.Start.Format(dateLayout)),
		End:   aws.String(r.End.Format(dateLayout)),
	}
}

func costAndUsageInput(
	r domain.DateRange,
	granularity types.Granularity,
	groups []types.GroupDefinition,
) *costexplorer.GetCostAndUsageInput {
	return &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(r),
		Granularity: granularity,
		Metrics:     []string{unblendedCost},
		Filter:      costFilter(),
		GroupBy:     groups,
	}
}

// getCostAndUsage follows NextPageToken until every result is collected.
func getCostAndUsage(
	ctx context.Context,
	client assume.CostExplorerAPI,
	input *costexplorer.GetCostAndUsageInput,
) ([]types.ResultByTime, error) {
	var results []types.ResultByTime
	for {
		out, err := client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage: %w", err)
		}
		results = append(results, out.ResultsByTime...)

		if aws.ToString(out.NextPageToken) == "" {
			return results, nil
		}
		next := *input
		next.NextPageToken = out.NextPageToken
		input = &next
	}
}

func parseAmount(metrics map[string]types.MetricValue) (decimal.Decimal, error) {
	m, ok := metrics[unblendedCost]
	if !ok || m.Amount == nil {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(aws.ToString(m.Amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s amount %q: %w", unblendedCost, aws.ToString(m.Amount), err)
	}
	return amount, nil
}

// resultTotal sums the groups of a result, or reads its total when it is ungrouped.
func resultTotal(result types.ResultByTime) (decimal.Decimal, error) {
	if len(result.Groups) == 0 {
		return parseAmount(result.Total)
	}
	total := decimal.Zero
	for _, g := range result.Groups {
		amount, err := parseAmount(g.Metrics)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}

// sumByGroupKey adds up the first group key of every group across all results.
func sumByGroupKey(results []types.ResultByTime, into map[string]decimal.Decimal) error {
	for _, result := range results {
		for _, g := range result.Groups {
			if len(g.Keys) == 0 {
				continue
			}
			amount, err := parseAmount(g.Metrics)
			if err != nil {
				return err
			}
			into[g.Keys[0]] = into[g.Keys[0]].Add(amount)
		}
	}
	return nil
}

func parsePeriod(period *types.DateInterval) (time.Time, time.Time, error) {
	if period == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("result has no time period")
	}
	start, err := time.Parse(dateLayout, aws.ToString(period.Start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	end, err := time.Parse(dateLayout, aws.ToString(period.End))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse end time: %w", err)
	}
	return start, end, nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(normalize.CostPrecision)
}

// byCost drops non-positive entries and orders the rest by cost descending, then key.
func byCost[T any](items []T, cost func(T) decimal.Decimal, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if cost(item).IsPositive() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := cost(out[i]).Cmp(cost(out[j])); c != 0 {
			return c > 0
		}
		return key(out[i]) < key(out[j])
	})
	return out
}

func serviceCosts(sums map[string]decimal.Decimal) []domain.ServiceCost {
	items := make([]domain.ServiceCost, 0, len(sums))
	for service, cost := range sums {
		items = append(items, domain.ServiceCost{Service: service, Cost: round(cost)})
	}
	return byCost(items,
		func(c domain.ServiceCost) decimal.Decimal { return c.Cost },
		func(c domain.ServiceCost) string { return c.Service })
}

func regionCosts(sums map[string]decimal.Decimal) []domain.RegionCost {
	items := make([]domain.RegionCost, 0, len(sums))
	for region, cost := range sums {
		items = append(items, domain.RegionCost{Region: region, Cost: round(cost)})
	}
	return byCost(items,
		func(c domain.RegionCost) decimal.Decimal { return c.Cost },
		func(c domain.RegionCost) string { return c.Region })
}
