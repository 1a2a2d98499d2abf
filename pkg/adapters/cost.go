package adapters

import (
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// mapAll converts every element and never returns nil, so empty lists encode as [].
func mapAll[S, D any](items []S, fn func(S) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func MapServiceCostDomainToApi(c domain.ServiceCost) api.ServiceCost {
	return api.ServiceCost{Service: c.Service, Cost: money(c.Cost)}
}

func MapRegionCostDomainToApi(c domain.RegionCost) api.RegionCost {
	return api.RegionCost{Region: c.Region, Cost: money(c.Cost)}
}

func MapUserCostDomainToApi(c domain.UserCost) api.UserCost {
	return api.UserCost{User: c.User, TagKey: c.TagKey, Cost: money(c.Cost), ResourceCount: c.ResourceCount}
}

func MapProjectCostDomainToApi(c domain.ProjectCost) api.ProjectCost {
	return api.ProjectCost{Project: c.Project, TagKey: c.TagKey, Cost: money(c.Cost), ResourceCount: c.ResourceCount}
}

func MapResourceCostDomainToApi(c domain.ResourceCost) api.ResourceCost {
	return api.ResourceCost{
		ResourceID: c.ResourceID,
		Name:       c.Name,
		Type:       c.Type,
		Service:    c.Service,
		Region:     c.Region,
		Cost:       money(c.Cost),
		Estimated:  c.Estimated,
	}
}

func MapTrendPointDomainToApi(p domain.TrendPoint) api.TrendPoint {
	return api.TrendPoint{Period: p.Period, StartDate: p.Start, EndDate: p.End, Cost: money(p.Cost)}
}

func MapDailyCostDomainToApi(d domain.DailyCost) api.DailyCost {
	return api.DailyCost{
		Date:     d.Date.Format(dateLayout),
		Cost:     money(d.Cost),
		Services: MapServiceCostsDomainToApi(d.Services),
	}
}

func MapWeeklyCostDomainToApi(w domain.WeeklyCost) api.WeeklyCost {
	return api.WeeklyCost{
		WeekStart: w.WeekStart.Format(dateLayout),
		WeekEnd:   w.WeekEnd.Format(dateLayout),
		Cost:      money(w.Cost),
		Services:  MapServiceCostsDomainToApi(w.Services),
	}
}

func MapResourceDetailDomainToApi(r domain.ResourceDetail) api.ResourceDetail {
	tags := make([]api.Tag, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, api.Tag{Key: t.Key, Value: t.Value})
	}
	return api.ResourceDetail{
		ID:             r.ID,
		ARN:            r.ARN,
		Name:           r.Name,
		Type:           r.Type,
		Service:        r.Service,
		Region:         r.Region,
		Owner:          r.Owner,
		Project:        r.Project,
		CreatedDate:    r.CreatedDate,
		Status:         string(r.Status),
		Cost:           money(r.Cost),
		CostEstimated:  r.CostEstimated,
		Tags:           tags,
		Specifications: r.Specifications,
	}
}

func MapRecommendationDomainToApi(r domain.Recommendation) api.Recommendation {
	return api.Recommendation{
		ID:                   r.ID,
		Type:                 r.Type,
		Severity:             string(r.Severity),
		Resource:             r.Resource,
		ResourceARN:          r.ResourceARN,
		ResourceType:         r.ResourceType,
		Region:               r.Region,
		Description:          r.Description,
		PotentialSavings:     money(r.PotentialSavings),
		EstimatedMonthlyCost: money(r.EstimatedMonthlyCost),
		SavingsPercentage:    money(r.SavingsPercentage),
		ImplementationEffort: r.ImplementationEffort,
		LastActivity:         r.LastActivity,
		Action:               r.Action,
		RestartNeeded:        r.RestartNeeded,
		RollbackPossible:     r.RollbackPossible,
	}
}

func MapServiceCostsDomainToApi(c []domain.ServiceCost) []api.ServiceCost {
	return mapAll(c, MapServiceCostDomainToApi)
}

func MapRegionCostsDomainToApi(c []domain.RegionCost) []api.RegionCost {
	return mapAll(c, MapRegionCostDomainToApi)
}

func MapUserCostsDomainToApi(c []domain.UserCost) []api.UserCost {
	return mapAll(c, MapUserCostDomainToApi)
}

func MapProjectCostsDomainToApi(c []domain.ProjectCost) []api.ProjectCost {
	return mapAll(c, MapProjectCostDomainToApi)
}

func MapResourceCostsDomainToApi(c []domain.ResourceCost) []api.ResourceCost {
	return mapAll(c, MapResourceCostDomainToApi)
}

func MapTrendDomainToApi(p []domain.TrendPoint) []api.TrendPoint {
	return mapAll(p, MapTrendPointDomainToApi)
}

func MapDailyCostsDomainToApi(d []domain.DailyCost) []api.DailyCost {
	return mapAll(d, MapDailyCostDomainToApi)
}

func MapWeeklyCostsDomainToApi(w []domain.WeeklyCost) []api.WeeklyCost {
	return mapAll(w, MapWeeklyCostDomainToApi)
}

func MapResourceDetailsDomainToApi(r []domain.ResourceDetail) []api.ResourceDetail {
	return mapAll(r, MapResourceDetailDomainToApi)
}

func MapRecommendationsDomainToApi(r []domain.Recommendation) []api.Recommendation {
	return mapAll(r, MapRecommendationDomainToApi)
}

func MapAnalysisDomainToApi(a domain.Analysis) api.Analysis {
	return api.Analysis{
		TotalMonthlyCost:     money(a.TotalMonthlyCost),
		ServiceCosts:         MapServiceCostsDomainToApi(a.ServiceCosts),
		RegionCosts:          MapRegionCostsDomainToApi(a.RegionCosts),
		UserCosts:            MapUserCostsDomainToApi(a.UserCosts),
		ResourceCosts:        MapResourceCostsDomainToApi(a.ResourceCosts),
		ProjectCosts:         MapProjectCostsDomainToApi(a.ProjectCosts),
		Recommendations:      MapRecommendationsDomainToApi(a.Recommendations),
		CostTrendData:        MapTrendDomainToApi(a.CostTrendData),
		DailyCostData:        MapDailyCostsDomainToApi(a.DailyCostData),
		WeeklyCostData:       MapWeeklyCostsDomainToApi(a.WeeklyCostData),
		TopSpendingResources: MapResourceDetailsDomainToApi(a.TopSpendingResources),
	}
}
