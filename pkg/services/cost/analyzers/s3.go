package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
)

const (
	s3Service = "Amazon Simple Storage Service"

	// GetBucketLocation reports buckets in us-east-1 with an empty constraint.
	s3DefaultRegion = "us-east-1"
)

type s3Analyzer struct{}

func NewS3Analyzer() *s3Analyzer {
	return &s3Analyzer{}
}

func (a *s3Analyzer) GetResourceType() string {
	return s3Service
}

func (a *s3Analyzer) CollectInventory(ctx context.Context, clients *assume.Clients) ([]normalize.RawResource, error) {
	resp, err := clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	raws := make([]normalize.RawResource, 0, len(resp.Buckets))
	for _, bucket := range resp.Buckets {
		region := ""
		locResp, err := clients.S3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
			Bucket: bucket.Name,
		})
		if err == nil {
			region = string(locResp.LocationConstraint)
			if region == "" {
				region = s3DefaultRegion
			}
		}
		raws = append(raws, normalize.FromS3Bucket(bucket, region))
	}
	return raws, nil
}
