package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Recommendation struct {
	ID                   string
	Type                 string // Rightsize, Stop, ...
	Severity             Severity
	Resource             string // resource id
	ResourceARN          string
	ResourceType         string
	Region               string
	Description          string
	PotentialSavings     decimal.Decimal // monthly
	EstimatedMonthlyCost decimal.Decimal
	SavingsPercentage    decimal.Decimal
	ImplementationEffort string
	LastActivity         *time.Time
	Action               string
	RestartNeeded        bool
	RollbackPossible     bool
}
