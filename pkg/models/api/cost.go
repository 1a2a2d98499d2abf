package api

import "time"

type ServiceCost struct {
	Service string  `json:"service"`
	Cost    float64 `json:"cost"`
}

type RegionCost struct {
	Region string  `json:"region"`
	Cost   float64 `json:"cost"`
}

type UserCost struct {
	User          string  `json:"user"`
	TagKey        string  `json:"tagKey"`
	Cost          float64 `json:"cost"`
	ResourceCount int     `json:"resourceCount"`
}

type ProjectCost struct {
	Project       string  `json:"project"`
	TagKey        string  `json:"tagKey"`
	Cost          float64 `json:"cost"`
	ResourceCount int     `json:"resourceCount"`
}

type ResourceCost struct {
	ResourceID string  `json:"resourceId"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Service    string  `json:"service"`
	Region     string  `json:"region"`
	Cost       float64 `json:"cost"`
	Estimated  bool    `json:"estimated"`
}

type TrendPoint struct {
	Period    string    `json:"period"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Cost      float64   `json:"cost"`
}

type DailyCost struct {
	Date     string        `json:"date"`
	Cost     float64       `json:"cost"`
	Services []ServiceCost `json:"services"`
}

type WeeklyCost struct {
	WeekStart string        `json:"weekStart"`
	WeekEnd   string        `json:"weekEnd"`
	Cost      float64       `json:"cost"`
	Services  []ServiceCost `json:"services"`
}

type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ResourceDetail struct {
	ID             string            `json:"id"`
	ARN            string            `json:"arn,omitempty"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	Service        string            `json:"service,omitempty"`
	Region         string            `json:"region"`
	Owner          string            `json:"owner"`
	Project        string            `json:"project"`
	CreatedDate    string            `json:"createdDate"`
	Status         string            `json:"status"`
	Cost           float64           `json:"cost"`
	CostEstimated  bool              `json:"costEstimated"`
	Tags           []Tag             `json:"tags"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type Recommendation struct {
	ID                   string     `json:"id"`
	Type                 string     `json:"type"`
	Severity             string     `json:"severity"`
	Resource             string     `json:"resource"`
	ResourceARN          string     `json:"resourceArn,omitempty"`
	ResourceType         string     `json:"resourceType,omitempty"`
	Region               string     `json:"region,omitempty"`
	Description          string     `json:"description"`
	PotentialSavings     float64    `json:"potentialSavings"`
	EstimatedMonthlyCost float64    `json:"estimatedMonthlyCost"`
	SavingsPercentage    float64    `json:"savingsPercentage"`
	ImplementationEffort string     `json:"implementationEffort,omitempty"`
	LastActivity         *time.Time `json:"lastActivity"`
	Action               string     `json:"action"`
	RestartNeeded        bool       `json:"restartNeeded"`
	RollbackPossible     bool       `json:"rollbackPossible"`
}

type Analysis struct {
	TotalMonthlyCost     float64          `json:"totalMonthlyCost"`
	ServiceCosts         []ServiceCost    `json:"serviceCosts"`
	RegionCosts          []RegionCost     `json:"regionCosts"`
	UserCosts            []UserCost       `json:"userCosts"`
	ResourceCosts        []ResourceCost   `json:"resourceCosts"`
	ProjectCosts         []ProjectCost    `json:"projectCosts"`
	Recommendations      []Recommendation `json:"recommendations"`
	CostTrendData        []TrendPoint     `json:"costTrendData"`
	DailyCostData        []DailyCost      `json:"dailyCostData"`
	WeeklyCostData       []WeeklyCost     `json:"weeklyCostData"`
	TopSpendingResources []ResourceDetail `json:"topSpendingResources"`
}

type TotalCost struct {
	TotalMonthlyCost float64 `json:"totalMonthlyCost"`
}
