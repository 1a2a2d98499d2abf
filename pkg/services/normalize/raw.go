// Package normalize collapses resource records from heterogeneous upstream shapes into one
// canonical ResourceDetail per physical resource.
package normalize

import (
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the version of RawResource produced by the adapters in this package.
const SchemaVersion = 1

// Source names the upstream shape a RawResource was adapted from.
type Source string

const (
	SourceTagging      Source = "tagging"
	SourceCostExplorer Source = "cost-explorer"
	SourceEC2          Source = "ec2"
	SourceRDS          Source = "rds"
	SourceS3           Source = "s3"
	SourceLegacy       Source = "legacy"
)

var (
	// OwnerTagKeys are tried in order when attributing a resource to a user.
	OwnerTagKeys = []string{"Owner", "User", "CreatedBy", "Team", "Department"}
	// ProjectTagKeys are tried in order when attributing a resource to a project.
	ProjectTagKeys = []string{"Project", "Application", "Environment", "Workload"}
)

// RawResource is the input schema of Normalize. Every upstream response shape has exactly
// one adapter producing it.
type RawResource struct {
	Version        int
	Source         Source
	ID             string // ARN or bare identifier
	Name           string
	Type           string
	Service        string
	Region         string
	Owner          string
	Project        string
	CreatedDate    string
	Status         domain.ResourceStatus
	Cost           decimal.Decimal
	CostEstimated  bool
	Tags           []domain.Tag
	Specifications map[string]string
}
