package cost

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopResources = 10
	DefaultTrendMonths  = 6
)

type Settings struct {
	TopResources int
	TrendMonths  int
	Clock        func() time.Time
}

type service struct {
	provider    assume.ClientProvider
	analyzers   Registry
	recommender Recommender
	now         func() time.Time
	topN        int
	trendMonths int
}

func NewService(
	provider assume.ClientProvider,
	analyzers Registry,
	recommender Recommender,
	settings Settings,
) Service {
	if analyzers == nil {
		analyzers, _ = NewRegistry()
	}
	if settings.TopResources <= 0 {
		settings.TopResources = DefaultTopResources
	}
	if settings.TrendMonths <= 0 {
		settings.TrendMonths = DefaultTrendMonths
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}

	return &service{
		provider:    provider,
		analyzers:   analyzers,
		recommender: recommender,
		now:         settings.Clock,
		topN:        settings.TopResources,
		trendMonths: settings.TrendMonths,
	}
}

func (s *service) GetTotalMonthlyCost(ctx context.Context, creds domain.Credentials) (decimal.Decimal, error) {
	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return decimal.Zero, err
	}

	results, err := getCostAndUsage(ctx, clients.CostExplorer,
		costAndUsageInput(MonthToDate(s.now()), types.GranularityMonthly, nil))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, result := range results {
		amount, err := resultTotal(result)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return round(total), nil
}

func (s *service) GetServiceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ServiceCost, error) {
	sums, err := s.monthToDateBy(ctx, creds, types.DimensionService)
	if err != nil {
		return nil, err
	}
	return serviceCosts(sums), nil
}

func (s *service) GetRegionCosts(ctx context.Context, creds domain.Credentials) ([]domain.RegionCost, error) {
	sums, err := s.monthToDateBy(ctx, creds, types.DimensionRegion)
	if err != nil {
		return nil, err
	}
	return regionCosts(sums), nil
}

func (s *service) monthToDateBy(
	ctx context.Context,
	creds domain.Credentials,
	dimension types.Dimension,
) (map[string]decimal.Decimal, error) {
	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	results, err := getCostAndUsage(ctx, clients.CostExplorer,
		costAndUsageInput(MonthToDate(s.now()), types.GranularityMonthly, groupBy(dimension)))
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	if err := sumByGroupKey(results, sums); err != nil {
		return nil, err
	}
	return sums, nil
}

func (s *service) GetCostTrendData(ctx context.Context, creds domain.Credentials) ([]domain.TrendPoint, error) {
	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, err
	}

	results, err := getCostAndUsage(ctx, clients.CostExplorer,
		costAndUsageInput(LastMonths(s.now(), s.trendMonths), types.GranularityMonthly, nil))
	if err != nil {
		return nil, err
	}

	points := make([]domain.TrendPoint, 0, len(results))
	for _, result := range results {
		start, end, err := parsePeriod(result.TimePeriod)
		if err != nil {
			return nil, err
		}
		amount, err := resultTotal(result)
		if err != nil {
			return nil, err
		}
		points = append(points, domain.TrendPoint{
			Period: start.Format("2006-01"),
			Start:  start,
			End:    end,
			Cost:   round(amount),
		})
	}
	return points, nil
}

func (s *service) GetDailyCostData(ctx context.Context, creds domain.Credentials) ([]domain.DailyCost, error) {
	results, _, err := s.dailyByService(ctx, creds, dailyWindowDays)
	if err != nil {
		return nil, err
	}

	days := make([]domain.DailyCost, 0, len(results))
	for _, result := range results {
		start, _, err := parsePeriod(result.TimePeriod)
		if err != nil {
			return nil, err
		}
		sums := make(map[string]decimal.Decimal)
		if err := sumByGroupKey([]types.ResultByTime{result}, sums); err != nil {
			return nil, err
		}
		days = append(days, domain.DailyCost{
			Date:     start,
			Cost:     sumOf(sums),
			Services: serviceCosts(sums),
		})
	}
	return days, nil
}

// GetWeeklyCostData buckets a daily series into consecutive 7-day windows, oldest first.
func (s *service) GetWeeklyCostData(ctx context.Context, creds domain.Credentials) ([]domain.WeeklyCost, error) {
	results, period, err := s.dailyByService(ctx, creds, weeklyWindowWeeks*7)
	if err != nil {
		return nil, err
	}

	buckets := make([]map[string]decimal.Decimal, period.Days()/7)
	for i := range buckets {
		buckets[i] = make(map[string]decimal.Decimal)
	}

	for _, result := range results {
		start, _, err := parsePeriod(result.TimePeriod)
		if err != nil {
			return nil, err
		}
		idx := int(start.Sub(period.Start).Hours()/24) / 7
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		if err := sumByGroupKey([]types.ResultByTime{result}, buckets[idx]); err != nil {
			return nil, err
		}
	}

	weeks := make([]domain.WeeklyCost, 0, len(buckets))
	for i, sums := range buckets {
		weekStart := period.Start.AddDate(0, 0, 7*i)
		weeks = append(weeks, domain.WeeklyCost{
			WeekStart: weekStart,
			WeekEnd:   weekStart.AddDate(0, 0, 7),
			Cost:      sumOf(sums),
			Services:  serviceCosts(sums),
		})
	}
	return weeks, nil
}

func (s *service) dailyByService(
	ctx context.Context,
	creds domain.Credentials,
	days int,
) ([]types.ResultByTime, domain.DateRange, error) {
	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, domain.DateRange{}, err
	}

	period := TrailingDays(s.now(), days)
	results, err := getCostAndUsage(ctx, clients.CostExplorer,
		costAndUsageInput(period, types.GranularityDaily, groupBy(types.DimensionService)))
	if err != nil {
		return nil, domain.DateRange{}, err
	}
	return results, period, nil
}

func (s *service) GetRecommendations(ctx context.Context, creds domain.Credentials) ([]domain.Recommendation, error) {
	if s.recommender == nil {
		return []domain.Recommendation{}, nil
	}

	clients, err := s.provider.Clients(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.recommender.ListRecommendations(ctx, clients.OptimizationHub)
}

// GetComprehensiveAnalysis queries every dimension concurrently. The first failure cancels
// the rest and fails the snapshot.
func (s *service) GetComprehensiveAnalysis(ctx context.Context, creds domain.Credentials) (*domain.Analysis, error) {
	analysis := &domain.Analysis{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		analysis.TotalMonthlyCost, err = s.GetTotalMonthlyCost(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.ServiceCosts, err = s.GetServiceCosts(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.RegionCosts, err = s.GetRegionCosts(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.UserCosts, err = s.GetUserCosts(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.ProjectCosts, err = s.GetProjectCosts(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.ResourceCosts, err = s.GetResourceCosts(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.TopSpendingResources, err = s.GetTopSpendingResources(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.CostTrendData, err = s.GetCostTrendData(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.DailyCostData, err = s.GetDailyCostData(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.WeeklyCostData, err = s.GetWeeklyCostData(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		analysis.Recommendations, err = s.GetRecommendations(gctx, creds)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return analysis, nil
}

func sumOf(sums map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range sums {
		total = total.Add(v)
	}
	return round(total)
}
