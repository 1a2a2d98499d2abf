package export

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	currency = "USD"
	unitUSD  = "USD"
)

// AnalysisReport lays out the month-to-date analysis of one account. now closes the period.
func AnalysisReport(accountID string, a *domain.Analysis, now time.Time) *domain.Report {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	report := &domain.Report{
		Title:       fmt.Sprintf("Cost analysis for account %s", accountID),
		Period:      domain.TimePeriod{Start: start, End: now, Duration: now.Day()},
		TotalAmount: a.TotalMonthlyCost,
		Currency:    currency,
	}

	services := domain.ReportSection{Title: "Services", Summary: map[string]interface{}{"Services": len(a.ServiceCosts)}}
	for _, s := range a.ServiceCosts {
		services.Details = append(services.Details, money(s.Service, s.Cost, share(s.Cost, a.TotalMonthlyCost)))
	}

	regions := domain.ReportSection{Title: "Regions", Summary: map[string]interface{}{"Regions": len(a.RegionCosts)}}
	for _, r := range a.RegionCosts {
		regions.Details = append(regions.Details, money(r.Region, r.Cost, share(r.Cost, a.TotalMonthlyCost)))
	}

	owners := domain.ReportSection{Title: "Owners", Summary: map[string]interface{}{}}
	for _, u := range a.UserCosts {
		owners.Details = append(owners.Details, money(u.User, u.Cost, resources(u.ResourceCount)+" by "+u.TagKey))
	}

	projects := domain.ReportSection{Title: "Projects", Summary: map[string]interface{}{}}
	for _, p := range a.ProjectCosts {
		projects.Details = append(projects.Details, money(p.Project, p.Cost, resources(p.ResourceCount)+" by "+p.TagKey))
	}

	top := domain.ReportSection{Title: "Top Spending Resources", Summary: map[string]interface{}{}}
	for _, r := range a.TopSpendingResources {
		top.Details = append(top.Details, resourceDetail(r))
	}

	trend := domain.ReportSection{Title: "Monthly Trend", Summary: map[string]interface{}{}}
	for _, p := range a.CostTrendData {
		trend.Details = append(trend.Details, money(p.Period, p.Cost, ""))
	}

	report.Sections = []domain.ReportSection{
		services, regions, owners, projects, top, trend, recommendationsSection(a.Recommendations),
	}
	return report
}

// RecommendationsReport lists savings opportunities, largest first.
func RecommendationsReport(accountID string, recs []domain.Recommendation) *domain.Report {
	return &domain.Report{
		Title:       fmt.Sprintf("Savings recommendations for account %s", accountID),
		Sections:    []domain.ReportSection{recommendationsSection(recs)},
		TotalAmount: potentialSavings(recs),
		Currency:    currency,
	}
}

// ResourcesReport lists normalized resources with their estimated monthly cost.
func ResourcesReport(title string, details []domain.ResourceDetail) *domain.Report {
	total := decimal.Zero
	estimated := 0
	section := domain.ReportSection{Title: "Resources"}
	for _, r := range details {
		total = total.Add(r.Cost)
		if r.CostEstimated {
			estimated++
		}
		section.Details = append(section.Details, resourceDetail(r))
	}
	section.Summary = map[string]interface{}{
		"Resources": humanize.Comma(int64(len(details))),
		"Estimated": humanize.Comma(int64(estimated)),
	}

	return &domain.Report{
		Title:       title,
		Sections:    []domain.ReportSection{section},
		TotalAmount: total,
		Currency:    currency,
	}
}

func recommendationsSection(recs []domain.Recommendation) domain.ReportSection {
	section := domain.ReportSection{
		Title: "Recommendations",
		Summary: map[string]interface{}{
			"Recommendations":   len(recs),
			"Potential savings": currency + " " + Amount(potentialSavings(recs)),
		},
	}
	for _, r := range recs {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        cmp.Or(r.Resource, r.ID),
			Value:       Amount(r.PotentialSavings),
			Unit:        strings.ToUpper(string(r.Severity)),
			Description: r.Description,
		})
	}
	return section
}

func potentialSavings(recs []domain.Recommendation) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.PotentialSavings)
	}
	return total
}

func resourceDetail(r domain.ResourceDetail) domain.ReportDetail {
	desc := []string{cmp.Or(r.Type, "Unknown"), cmp.Or(r.Region, "global"), string(r.Status)}
	if r.Owner != "" {
		desc = append(desc, "owner "+r.Owner)
	}
	if r.CostEstimated {
		desc = append(desc, "estimated")
	}
	return money(cmp.Or(r.Name, r.ID), r.Cost, strings.Join(desc, ", "))
}

func money(name string, amount decimal.Decimal, desc string) domain.ReportDetail {
	return domain.ReportDetail{Name: name, Value: Amount(amount), Unit: unitUSD, Description: desc}
}

func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return ""
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1) + "% of total"
}

func resources(n int) string {
	if n == 1 {
		return "1 resource"
	}
	return humanize.Comma(int64(n)) + " resources"
}
