package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceCost struct {
	Service string
	Cost    decimal.Decimal
}

type RegionCost struct {
	Region string
	Cost   decimal.Decimal
}

type UserCost struct {
	User          string
	TagKey        string // tag key the attribution was derived from, e.g. Owner
	Cost          decimal.Decimal
	ResourceCount int
}

type ProjectCost struct {
	Project       string
	TagKey        string
	Cost          decimal.Decimal
	ResourceCount int
}

type ResourceCost struct {
	ResourceID string
	Name       string
	Type       string
	Service    string
	Region     string
	Cost       decimal.Decimal
	Estimated  bool
}

// TrendPoint is one month of the cost trend series.
type TrendPoint struct {
	Period string // 2025-06
	Start  time.Time
	End    time.Time
	Cost   decimal.Decimal
}

type DailyCost struct {
	Date     time.Time
	Cost     decimal.Decimal
	Services []ServiceCost
}

type WeeklyCost struct {
	WeekStart time.Time
	WeekEnd   time.Time // exclusive
	Cost      decimal.Decimal
	Services  []ServiceCost
}

// Analysis is the full dashboard snapshot for one account.
type Analysis struct {
	TotalMonthlyCost     decimal.Decimal
	ServiceCosts         []ServiceCost
	RegionCosts          []RegionCost
	UserCosts            []UserCost
	ResourceCosts        []ResourceCost
	ProjectCosts         []ProjectCost
	Recommendations      []Recommendation
	CostTrendData        []TrendPoint
	DailyCostData        []DailyCost
	WeeklyCostData       []WeeklyCost
	TopSpendingResources []ResourceDetail
}

// DateRange is a Cost Explorer time period. End is exclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
