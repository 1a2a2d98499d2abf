package normalize

import (
	"strings"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

const (
	typeS3Bucket = "S3 Bucket"
	typeUnknown  = "Unknown"
)

var idPrefixTypes = []struct {
	prefix string
	kind   string
}{
	{"i-", "EC2 Instance"},
	{"vol-", "EBS Volume"},
	{"snap-", "EBS Snapshot"},
	{"ami-", "AMI"},
	{"sg-", "Security Group"},
	{"vpc-", "VPC"},
	{"vpce-", "VPC Endpoint"},
	{"subnet-", "Subnet"},
	{"eni-", "Network Interface"},
	{"igw-", "Internet Gateway"},
	{"nat-", "NAT Gateway"},
	{"eipalloc-", "Elastic IP"},
	{"rtb-", "Route Table"},
	{"acl-", "Network ACL"},
	{"lt-", "Launch Template"},
	{"tgw-", "Transit Gateway"},
	{"db-", "RDS Instance"},
	{"fs-", "EFS File System"},
}

var arnKindTypes = map[string]string{
	"ec2:instance":                      "EC2 Instance",
	"ec2:volume":                        "EBS Volume",
	"ec2:snapshot":                      "EBS Snapshot",
	"ec2:image":                         "AMI",
	"ec2:natgateway":                    "NAT Gateway",
	"ec2:elastic-ip":                    "Elastic IP",
	"ec2:security-group":                "Security Group",
	"ec2:vpc":                           "VPC",
	"rds:db":                            "RDS Instance",
	"rds:cluster":                       "RDS Cluster",
	"rds:snapshot":                      "RDS Snapshot",
	"lambda:function":                   "Lambda Function",
	"dynamodb:table":                    "DynamoDB Table",
	"elasticloadbalancing:loadbalancer": "Load Balancer",
	"elasticache:cluster":               "ElastiCache Cluster",
	"ecs:cluster":                       "ECS Cluster",
	"ecs:service":                       "ECS Service",
	"eks:cluster":                       "EKS Cluster",
	"elasticfilesystem:file-system":     "EFS File System",
	"redshift:cluster":                  "Redshift Cluster",
	"es:domain":                         "OpenSearch Domain",
	"kinesis:stream":                    "Kinesis Stream",
	"logs:log-group":                    "CloudWatch Log Group",
	"cloudfront:distribution":           "CloudFront Distribution",
	"sqs":                               "SQS Queue",
	"sns":                               "SNS Topic",
}

// ResourceType derives a display type for a raw record. The second result reports whether
// the type came from a lookup table rather than the service-name fallback.
func ResourceType(raw RawResource) (string, bool) {
	if raw.Type != "" {
		return raw.Type, true
	}

	if isS3(raw) {
		return typeS3Bucket, true
	}

	if kind := resourceKind(raw.ID); kind != "" {
		if t, ok := arnKindTypes[kind]; ok {
			return t, true
		}
	}

	key := CanonicalKey(raw.ID)
	for _, p := range idPrefixTypes {
		if strings.HasPrefix(key, p.prefix) {
			return p.kind, true
		}
	}

	if raw.Service != "" {
		return raw.Service, false
	}
	return typeUnknown, false
}

// isS3 trusts the service of an ARN; the name heuristics only apply to bare ids.
func isS3(raw RawResource) bool {
	if svc := arnService(raw.ID); svc != "" {
		return svc == "s3"
	}
	svc := strings.ToLower(raw.Service)
	return strings.Contains(svc, "simple storage service") ||
		svc == "s3" || svc == "amazon s3" ||
		strings.Contains(strings.ToLower(raw.ID), "bucket")
}

// ParseStatus maps upstream state names onto the canonical status set.
func ParseStatus(s string) domain.ResourceStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "available", "active", "in-use", "in use", "enabled":
		return domain.ResourceStatusRunning
	case "stopped", "stopping", "disabled", "inactive":
		return domain.ResourceStatusStopped
	case "pending", "creating", "starting", "provisioning", "modifying", "backing-up":
		return domain.ResourceStatusPending
	case "terminated", "shutting-down", "deleted", "deleting":
		return domain.ResourceStatusTerminated
	default:
		return domain.ResourceStatusUnknown
	}
}

func statusRank(s domain.ResourceStatus) int {
	switch s {
	case domain.ResourceStatusTerminated:
		return 4
	case domain.ResourceStatusRunning:
		return 3
	case domain.ResourceStatusStopped:
		return 2
	case domain.ResourceStatusPending:
		return 1
	default:
		return 0
	}
}
