package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
)

const rdsService = "Amazon Relational Database Service"

type rdsAnalyzer struct {
	regions []string
}

func NewRDSAnalyzer(regions ...string) *rdsAnalyzer {
	return &rdsAnalyzer{regions: regions}
}

func (a *rdsAnalyzer) GetResourceType() string {
	return rdsService
}

func (a *rdsAnalyzer) CollectInventory(ctx context.Context, clients *assume.Clients) ([]normalize.RawResource, error) {
	var raws []normalize.RawResource
	for _, region := range regionsOrDefault(a.regions) {
		paginator := rds.NewDescribeDBInstancesPaginator(clients.RDS, &rds.DescribeDBInstancesInput{})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx, inRegion[rds.Options](region, func(o *rds.Options, r string) { o.Region = r }))
			if err != nil {
				return raws, fmt.Errorf("failed to describe RDS instances in %s: %w", regionName(region), err)
			}
			for _, instance := range page.DBInstances {
				raws = append(raws, normalize.FromRDSInstance(instance))
			}
		}
	}
	return raws, nil
}
