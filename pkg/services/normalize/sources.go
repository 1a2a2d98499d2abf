package normalize

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// FromTagMapping adapts a Resource Groups Tagging API mapping.
func FromTagMapping(m taggingtypes.ResourceTagMapping, cost decimal.Decimal, estimated bool) RawResource {
	tags := make([]domain.Tag, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, domain.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}

	return RawResource{
		Version:       SchemaVersion,
		Source:        SourceTagging,
		ID:            aws.ToString(m.ResourceARN),
		Name:          tagValue(tags, "Name"),
		Owner:         firstTagOf(tags, OwnerTagKeys),
		Project:       firstTagOf(tags, ProjectTagKeys),
		Cost:          cost,
		CostEstimated: estimated,
		Tags:          tags,
	}
}

// FromCostGroup adapts one RESOURCE_ID group of a Cost Explorer result.
func FromCostGroup(resourceID, service, amount string) (RawResource, error) {
	cost, err := decimal.NewFromString(amount)
	if err != nil {
		return RawResource{}, fmt.Errorf("invalid cost amount %q for %s: %w", amount, resourceID, err)
	}
	return RawResource{
		Version: SchemaVersion,
		Source:  SourceCostExplorer,
		ID:      resourceID,
		Service: service,
		Cost:    cost,
	}, nil
}

// FromEC2Instance adapts an EC2 DescribeInstances instance.
func FromEC2Instance(inst ec2types.Instance) RawResource {
	tags := make([]domain.Tag, 0, len(inst.Tags))
	for _, t := range inst.Tags {
		tags = append(tags, domain.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}

	raw := RawResource{
		Version: SchemaVersion,
		Source:  SourceEC2,
		ID:      aws.ToString(inst.InstanceId),
		Name:    tagValue(tags, "Name"),
		Type:    "EC2 Instance",
		Tags:    tags,
		Specifications: map[string]string{
			"instanceType": string(inst.InstanceType),
		},
	}
	if inst.State != nil {
		raw.Status = ParseStatus(string(inst.State.Name))
	}
	if inst.Placement != nil {
		raw.Region = regionFromAZ(aws.ToString(inst.Placement.AvailabilityZone))
	}
	if inst.LaunchTime != nil {
		raw.CreatedDate = inst.LaunchTime.UTC().Format(dateLayout)
	}
	if inst.Architecture != "" {
		raw.Specifications["architecture"] = string(inst.Architecture)
	}
	if p := aws.ToString(inst.PlatformDetails); p != "" {
		raw.Specifications["platform"] = p
	}
	return raw
}

// FromRDSInstance adapts an RDS DescribeDBInstances instance.
func FromRDSInstance(db rdstypes.DBInstance) RawResource {
	tags := make([]domain.Tag, 0, len(db.TagList))
	for _, t := range db.TagList {
		tags = append(tags, domain.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}

	raw := RawResource{
		Version: SchemaVersion,
		Source:  SourceRDS,
		ID:      aws.ToString(db.DBInstanceArn),
		Name:    aws.ToString(db.DBInstanceIdentifier),
		Type:    "RDS Instance",
		Region:  regionFromAZ(aws.ToString(db.AvailabilityZone)),
		Status:  ParseStatus(aws.ToString(db.DBInstanceStatus)),
		Tags:    tags,
		Specifications: map[string]string{
			"instanceClass": aws.ToString(db.DBInstanceClass),
			"engine":        aws.ToString(db.Engine),
		},
	}
	if raw.ID == "" {
		raw.ID = raw.Name
	}
	if v := aws.ToString(db.EngineVersion); v != "" {
		raw.Specifications["engineVersion"] = v
	}
	if db.AllocatedStorage != nil {
		raw.Specifications["allocatedStorageGB"] = strconv.Itoa(int(*db.AllocatedStorage))
	}
	if db.MultiAZ != nil {
		raw.Specifications["multiAZ"] = strconv.FormatBool(*db.MultiAZ)
	}
	if db.InstanceCreateTime != nil {
		raw.CreatedDate = db.InstanceCreateTime.UTC().Format(dateLayout)
	}
	return raw
}

// FromS3Bucket adapts an S3 ListBuckets bucket.
func FromS3Bucket(b s3types.Bucket, region string) RawResource {
	name := aws.ToString(b.Name)
	raw := RawResource{
		Version: SchemaVersion,
		Source:  SourceS3,
		ID:      "arn:aws:s3:::" + name,
		Name:    name,
		Type:    typeS3Bucket,
		Region:  region,
		Status:  domain.ResourceStatusRunning,
	}
	if b.CreationDate != nil {
		raw.CreatedDate = b.CreationDate.UTC().Format(dateLayout)
	}
	return raw
}

func regionFromAZ(az string) string {
	if len(az) == 0 {
		return ""
	}
	last := az[len(az)-1]
	if last >= 'a' && last <= 'z' {
		return az[:len(az)-1]
	}
	return az
}

func tagValue(tags []domain.Tag, key string) string {
	for _, t := range tags {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}

func firstTagOf(tags []domain.Tag, keys []string) string {
	for _, k := range keys {
		if v := tagValue(tags, k); v != "" {
			return v
		}
	}
	return ""
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
