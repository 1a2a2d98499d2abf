// Package estimate provides monthly cost estimates for resources that have no billed cost
// attached, such as resources discovered through the tagging API.
package estimate

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/shopspring/decimal"
)

// Range is a monthly USD cost range for one kind of resource.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func newRange(lo, hi int64) Range {
	return Range{Min: decimal.NewFromInt(lo), Max: decimal.NewFromInt(hi)}
}

// Midpoint is the value reported as the estimate.
func (r Range) Midpoint() decimal.Decimal {
	return r.Min.Add(r.Max).Div(decimal.NewFromInt(2))
}

// DefaultRange applies to resource kinds missing from the table.
var DefaultRange = newRange(5, 25)

// Keyed by "<arn service>:<resource type>", or by the bare ARN service for services whose
// ARNs carry no resource type.
var monthlyRanges = map[string]Range{
	"ec2:instance":                      newRange(50, 150),
	"ec2:volume":                        newRange(5, 50),
	"ec2:snapshot":                      newRange(1, 20),
	"ec2:natgateway":                    newRange(30, 60),
	"ec2:elastic-ip":                    newRange(3, 5),
	"ec2:image":                         newRange(1, 10),
	"rds:db":                            newRange(100, 500),
	"rds:cluster":                       newRange(150, 600),
	"rds:snapshot":                      newRange(2, 30),
	"lambda:function":                   newRange(1, 20),
	"s3":                                newRange(5, 100),
	"dynamodb:table":                    newRange(5, 100),
	"elasticloadbalancing:loadbalancer": newRange(15, 40),
	"elasticache:cluster":               newRange(25, 200),
	"ecs:service":                       newRange(30, 150),
	"ecs:cluster":                       newRange(0, 10),
	"eks:cluster":                       newRange(70, 80),
	"elasticfilesystem:file-system":     newRange(5, 60),
	"redshift:cluster":                  newRange(180, 900),
	"es:domain":                         newRange(50, 300),
	"kinesis:stream":                    newRange(10, 50),
	"logs:log-group":                    newRange(0, 10),
	"cloudfront:distribution":           newRange(5, 100),
	"sqs":                               newRange(0, 5),
	"sns":                               newRange(0, 5),
}

// RangeFor returns the cost range for the resource identified by an ARN. The second result
// is false when the default range was used.
func RangeFor(resourceARN string) (Range, bool) {
	parsed, err := arn.Parse(strings.TrimSpace(resourceARN))
	if err != nil {
		return DefaultRange, false
	}

	if r, ok := monthlyRanges[parsed.Service+":"+resourceType(parsed.Resource)]; ok {
		return r, true
	}
	if r, ok := monthlyRanges[parsed.Service]; ok {
		return r, true
	}
	return DefaultRange, false
}

// MonthlyCost estimates the monthly cost of the resource identified by an ARN. The result
// is deterministic for a given ARN.
func MonthlyCost(resourceARN string) decimal.Decimal {
	r, _ := RangeFor(resourceARN)
	return r.Midpoint()
}

func resourceType(resource string) string {
	if i := strings.IndexAny(resource, "/:"); i >= 0 {
		return resource[:i]
	}
	return resource
}
