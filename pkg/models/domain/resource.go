package domain

import "github.com/shopspring/decimal"

type ResourceStatus string

const (
	ResourceStatusRunning    ResourceStatus = "running"
	ResourceStatusStopped    ResourceStatus = "stopped"
	ResourceStatusPending    ResourceStatus = "pending"
	ResourceStatusTerminated ResourceStatus = "terminated"
	ResourceStatusUnknown    ResourceStatus = "unknown"
)

type Tag struct {
	Key   string
	Value string
}

// ResourceDetail is the canonical record for one physical resource.
type ResourceDetail struct {
	ID             string // canonical key
	ARN            string
	Name           string
	Type           string // EC2 Instance
	Service        string // Amazon Elastic Compute Cloud - Compute
	Region         string
	Owner          string
	Project        string
	CreatedDate    string // 2006-01-02, empty when unknown
	Status         ResourceStatus
	Cost           decimal.Decimal
	CostEstimated  bool
	Tags           []Tag
	Specifications map[string]string
}

func (r ResourceDetail) TagValue(key string) string {
	for _, t := range r.Tags {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}
