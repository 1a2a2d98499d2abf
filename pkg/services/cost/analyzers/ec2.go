package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
)

const ec2Service = "Amazon Elastic Compute Cloud - Compute"

type ec2Analyzer struct {
	regions []string
}

// NewEC2Analyzer lists instances in the given regions, or in the session's region when
// none are given.
func NewEC2Analyzer(regions ...string) *ec2Analyzer {
	return &ec2Analyzer{regions: regions}
}

func (a *ec2Analyzer) GetResourceType() string {
	return ec2Service
}

func (a *ec2Analyzer) CollectInventory(ctx context.Context, clients *assume.Clients) ([]normalize.RawResource, error) {
	var raws []normalize.RawResource
	for _, region := range regionsOrDefault(a.regions) {
		paginator := ec2.NewDescribeInstancesPaginator(clients.EC2, &ec2.DescribeInstancesInput{})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx, inRegion[ec2.Options](region, func(o *ec2.Options, r string) { o.Region = r }))
			if err != nil {
				return raws, fmt.Errorf("failed to describe EC2 instances in %s: %w", regionName(region), err)
			}
			for _, reservation := range page.Reservations {
				for _, instance := range reservation.Instances {
					raws = append(raws, normalize.FromEC2Instance(instance))
				}
			}
		}
	}
	return raws, nil
}
