package cost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/costoptimizationhub"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/assume"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Clients(ctx context.Context, creds domain.Credentials) (*assume.Clients, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assume.Clients), args.Error(1)
}

type mockCostExplorer struct {
	mock.Mock
}

func (m *mockCostExplorer) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageOutput), args.Error(1)
}

func (m *mockCostExplorer) GetCostAndUsageWithResources(ctx context.Context, params *costexplorer.GetCostAndUsageWithResourcesInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageWithResourcesOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageWithResourcesOutput), args.Error(1)
}

type mockTagging struct {
	mock.Mock
}

func (m *mockTagging) GetResources(ctx context.Context, params *resourcegroupstaggingapi.GetResourcesInput, _ ...func(*resourcegroupstaggingapi.Options)) (*resourcegroupstaggingapi.GetResourcesOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resourcegroupstaggingapi.GetResourcesOutput), args.Error(1)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) ListRecommendations(ctx context.Context, client costoptimizationhub.ListRecommendationsAPIClient) ([]domain.Recommendation, error) {
	args := m.Called(ctx, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
	service string
}

func (m *mockAnalyzer) GetResourceType() string {
	return m.service
}

func (m *mockAnalyzer) CollectInventory(ctx context.Context, clients *assume.Clients) ([]normalize.RawResource, error) {
	args := m.Called(ctx, clients)
	return args.Get(0).([]normalize.RawResource), args.Error(1)
}

var (
	testCreds = domain.Credentials{
		AccountID: "123456789012",
		RoleARN:   "arn:aws:iam::123456789012:role/CostReader",
	}
	fixedNow = time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	provider    *mockProvider
	ce          *mockCostExplorer
	tagging     *mockTagging
	recommender *mockRecommender
	clients     *assume.Clients
}

func newFixture() *fixture {
	f := &fixture{
		provider:    new(mockProvider),
		ce:          new(mockCostExplorer),
		tagging:     new(mockTagging),
		recommender: new(mockRecommender),
	}
	f.clients = &assume.Clients{AccountID: testCreds.AccountID, CostExplorer: f.ce, Tagging: f.tagging}
	f.provider.On("Clients", mock.Anything, testCreds).Return(f.clients, nil)
	return f
}

func (f *fixture) service(analyzers ...Analyzer) Service {
	reg, err := NewRegistry(analyzers...)
	if err != nil {
		panic(err)
	}
	return NewService(f.provider, reg, f.recommender, Settings{
		Clock: func() time.Time { return fixedNow },
	})
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func group(key, amount string) types.Group {
	return types.Group{
		Keys:    []string{key},
		Metrics: map[string]types.MetricValue{unblendedCost: {Amount: aws.String(amount), Unit: aws.String("USD")}},
	}
}

func result(start, end string, groups ...types.Group) types.ResultByTime {
	return types.ResultByTime{
		TimePeriod: &types.DateInterval{Start: aws.String(start), End: aws.String(end)},
		Groups:     groups,
	}
}

func mapping(arn string, tags ...string) taggingtypes.ResourceTagMapping {
	m := taggingtypes.ResourceTagMapping{ResourceARN: aws.String(arn)}
	for i := 0; i+1 < len(tags); i += 2 {
		m.Tags = append(m.Tags, taggingtypes.Tag{Key: aws.String(tags[i]), Value: aws.String(tags[i+1])})
	}
	return m
}

func withTagKey(key string) interface{} {
	return mock.MatchedBy(func(in *resourcegroupstaggingapi.GetResourcesInput) bool {
		return len(in.TagFilters) == 1 && aws.ToString(in.TagFilters[0].Key) == key
	})
}

func TestGetServiceCosts(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return in.NextPageToken == nil &&
			in.Granularity == types.GranularityMonthly &&
			aws.ToString(in.TimePeriod.Start) == "2025-06-01" &&
			aws.ToString(in.TimePeriod.End) == "2025-06-17" &&
			aws.ToString(in.GroupBy[0].Key) == "SERVICE" &&
			in.Filter.Not != nil
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{result("2025-06-01", "2025-06-17",
			group("Amazon EC2", "10.123"), group("Amazon S3", "0"))},
		NextPageToken: aws.String("page-2"),
	}, nil)
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return aws.ToString(in.NextPageToken) == "page-2"
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{result("2025-06-01", "2025-06-17",
			group("Amazon EC2", "1.877"), group("Amazon RDS", "5"), group("Tax", "-1"))},
	}, nil)

	costs, err := f.service().GetServiceCosts(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, costs, 2)
	assert.Equal(t, "Amazon EC2", costs[0].Service)
	assert.Equal(t, "12", costs[0].Cost.String())
	assert.Equal(t, "Amazon RDS", costs[1].Service)
	f.ce.AssertExpectations(t)
}

func TestGetTotalMonthlyCost(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return len(in.GroupBy) == 0
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{{
			TimePeriod: &types.DateInterval{Start: aws.String("2025-06-01"), End: aws.String("2025-06-17")},
			Total:      map[string]types.MetricValue{unblendedCost: {Amount: aws.String("42.1234567")}},
		}},
	}, nil)

	total, err := f.service().GetTotalMonthlyCost(testContext(t), testCreds)
	require.NoError(t, err)
	assert.Equal(t, "42.123457", total.String())
}

func TestGetTotalMonthlyCost_AssumeRoleFails(t *testing.T) {
	provider := new(mockProvider)
	provider.On("Clients", mock.Anything, testCreds).Return(nil, errors.New("failed to assume role: AccessDenied"))

	_, err := NewService(provider, nil, nil, Settings{}).GetTotalMonthlyCost(testContext(t), testCreds)
	assert.EqualError(t, err, "failed to assume role: AccessDenied")
}

func TestGetUserCosts(t *testing.T) {
	f := newFixture()
	f.tagging.On("GetResources", mock.Anything, withTagKey("Owner")).
		Return(&resourcegroupstaggingapi.GetResourcesOutput{}, nil)
	f.tagging.On("GetResources", mock.Anything, withTagKey("User")).
		Return(&resourcegroupstaggingapi.GetResourcesOutput{
			ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
				mapping("arn:aws:ec2:us-east-1:123456789012:instance/i-1", "User", "alice"),
				mapping("arn:aws:ec2:us-east-1:123456789012:instance/i-2", "User", "alice"),
				mapping("arn:aws:rds:us-east-1:123456789012:db:orders", "User", "bob"),
			},
		}, nil)

	costs, err := f.service().GetUserCosts(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, costs, 2)

	assert.Equal(t, "bob", costs[0].User)
	assert.Equal(t, "300", costs[0].Cost.String())
	assert.Equal(t, 1, costs[0].ResourceCount)
	assert.Equal(t, "alice", costs[1].User)
	assert.Equal(t, "200", costs[1].Cost.String())
	assert.Equal(t, 2, costs[1].ResourceCount)
	assert.Equal(t, "User", costs[1].TagKey)
	f.tagging.AssertNotCalled(t, "GetResources", mock.Anything, withTagKey("CreatedBy"))
}

func TestGetProjectCosts_ErrorsYieldEmpty(t *testing.T) {
	f := newFixture()
	f.tagging.On("GetResources", mock.Anything, mock.Anything).Return(nil, errors.New("ThrottlingException"))

	costs, err := f.service().GetProjectCosts(testContext(t), testCreds)
	require.NoError(t, err)
	assert.NotNil(t, costs)
	assert.Empty(t, costs)
}

func TestGetCostTrendData(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return aws.ToString(in.TimePeriod.Start) == "2025-01-01" && in.Granularity == types.GranularityMonthly
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				TimePeriod: &types.DateInterval{Start: aws.String("2025-01-01"), End: aws.String("2025-02-01")},
				Total:      map[string]types.MetricValue{unblendedCost: {Amount: aws.String("100")}},
			},
			{
				TimePeriod: &types.DateInterval{Start: aws.String("2025-02-01"), End: aws.String("2025-03-01")},
				Total:      map[string]types.MetricValue{unblendedCost: {Amount: aws.String("0")}},
			},
		},
	}, nil)

	points, err := f.service().GetCostTrendData(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2025-01", points[0].Period)
	assert.Equal(t, "100", points[0].Cost.String())
	assert.Equal(t, "2025-02", points[1].Period)
	assert.True(t, points[1].Cost.IsZero())
}

func TestGetDailyCostData(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return in.Granularity == types.GranularityDaily && aws.ToString(in.TimePeriod.Start) == "2025-05-18"
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			result("2025-05-18", "2025-05-19", group("Amazon EC2", "2"), group("Amazon S3", "0.25")),
			result("2025-05-19", "2025-05-20"),
		},
	}, nil)

	days, err := f.service().GetDailyCostData(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, date("2025-05-18"), days[0].Date)
	assert.Equal(t, "2.25", days[0].Cost.String())
	assert.Len(t, days[0].Services, 2)
	assert.True(t, days[1].Cost.IsZero())
	assert.Empty(t, days[1].Services)
}

func TestGetWeeklyCostData(t *testing.T) {
	f := newFixture()
	start := date("2025-03-25")

	var results []types.ResultByTime
	for i := 0; i < 84; i++ {
		day := start.AddDate(0, 0, i)
		groups := []types.Group{group("Amazon EC2", "1")}
		if i == 0 {
			groups = append(groups, group("Amazon S3", "0.5"))
		}
		results = append(results, result(day.Format(dateLayout), day.AddDate(0, 0, 1).Format(dateLayout), groups...))
	}
	f.ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return aws.ToString(in.TimePeriod.Start) == "2025-03-25" && aws.ToString(in.TimePeriod.End) == "2025-06-17"
	})).Return(&costexplorer.GetCostAndUsageOutput{ResultsByTime: results}, nil)

	weeks, err := f.service().GetWeeklyCostData(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, weeks, 12)

	assert.Equal(t, start, weeks[0].WeekStart)
	assert.Equal(t, date("2025-04-01"), weeks[0].WeekEnd)
	assert.Equal(t, "7.5", weeks[0].Cost.String())
	require.Len(t, weeks[0].Services, 2)
	assert.Equal(t, "Amazon EC2", weeks[0].Services[0].Service)
	assert.Equal(t, "7", weeks[0].Services[0].Cost.String())
	assert.Equal(t, "7", weeks[11].Cost.String())
	assert.Equal(t, date("2025-06-17"), weeks[11].WeekEnd)
}

func TestGetResourcesForService(t *testing.T) {
	const ec2 = "Amazon Elastic Compute Cloud - Compute"

	f := newFixture()
	f.ce.On("GetCostAndUsageWithResources", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageWithResourcesInput) bool {
		return aws.ToString(in.TimePeriod.Start) == "2025-06-03" &&
			aws.ToString(in.GroupBy[0].Key) == "RESOURCE_ID" &&
			len(in.Filter.And) == 2 &&
			in.Filter.And[0].Dimensions.Values[0] == ec2
	})).Return(&costexplorer.GetCostAndUsageWithResourcesOutput{
		ResultsByTime: []types.ResultByTime{
			result("2025-06-03", "2025-06-04", group("i-abc", "3.5"), group(noResourceID, "10")),
			result("2025-06-04", "2025-06-05", group("i-abc", "3.5")),
		},
	}, nil)
	f.tagging.On("GetResources", mock.Anything, mock.MatchedBy(func(in *resourcegroupstaggingapi.GetResourcesInput) bool {
		return len(in.ResourceTypeFilters) > 0 && in.ResourceTypeFilters[0] == "ec2:instance"
	})).Return(&resourcegroupstaggingapi.GetResourcesOutput{
		ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
			mapping("arn:aws:ec2:us-east-1:123456789012:instance/i-abc", "Name", "web", "Owner", "alice"),
		},
	}, nil)

	analyzer := &mockAnalyzer{service: ec2}
	analyzer.On("CollectInventory", mock.Anything, f.clients).Return([]normalize.RawResource{{
		ID:             "i-abc",
		Type:           "EC2 Instance",
		Status:         domain.ResourceStatusStopped,
		Specifications: map[string]string{"instanceType": "t3.micro"},
	}}, nil)

	resources, err := f.service(analyzer).GetResourcesForService(testContext(t), testCreds, "ec2")
	require.NoError(t, err)
	require.Len(t, resources, 1)

	r := resources[0]
	assert.Equal(t, "i-abc", r.ID)
	assert.Equal(t, "web", r.Name)
	assert.Equal(t, "alice", r.Owner)
	assert.Equal(t, "7", r.Cost.String())
	assert.False(t, r.CostEstimated)
	assert.Equal(t, domain.ResourceStatusStopped, r.Status)
	assert.Equal(t, ec2, r.Service)
	assert.Equal(t, "us-east-1", r.Region)
	assert.Equal(t, "t3.micro", r.Specifications["instanceType"])
}

func TestGetResourcesForService_FallsBackToEstimates(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsageWithResources", mock.Anything, mock.Anything).
		Return(nil, &types.DataUnavailableException{Message: aws.String("resource-level data is not enabled")})
	f.tagging.On("GetResources", mock.Anything, mock.Anything).Return(&resourcegroupstaggingapi.GetResourcesOutput{
		ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
			mapping("arn:aws:rds:us-east-1:123456789012:db:orders"),
		},
	}, nil)

	resources, err := f.service().GetResourcesForService(testContext(t), testCreds, "RDS")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "orders", resources[0].ID)
	assert.Equal(t, "300", resources[0].Cost.String())
	assert.True(t, resources[0].CostEstimated)
}

func TestGetResourcesForService_PropagatesBillingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "access denied",
			err:  errors.New("AccessDeniedException: not authorized to perform ce:GetCostAndUsageWithResources"),
		},
		{
			name: "throttled",
			err:  &types.LimitExceededException{Message: aws.String("rate exceeded")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ce.On("GetCostAndUsageWithResources", mock.Anything, mock.Anything).Return(nil, tt.err)

			resources, err := f.service().GetResourcesForService(testContext(t), testCreds, "EC2")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, resources)
			f.tagging.AssertNotCalled(t, "GetResources", mock.Anything, mock.Anything)
		})
	}
}

func TestGetResourcesForService_RequiresName(t *testing.T) {
	f := newFixture()
	_, err := f.service().GetResourcesForService(testContext(t), testCreds, "  ")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "serviceName", verr.Fields[0].Field)
}

func TestGetTopSpendingResources(t *testing.T) {
	f := newFixture()
	mappings := []taggingtypes.ResourceTagMapping{
		mapping("arn:aws:lambda:us-east-1:123456789012:function:small"),
	}
	for _, id := range []string{"i-1", "i-2", "i-3", "i-4", "i-5", "i-6", "i-7", "i-8", "i-9", "i-10", "i-11"} {
		mappings = append(mappings, mapping("arn:aws:ec2:us-east-1:123456789012:instance/"+id))
	}
	f.tagging.On("GetResources", mock.Anything, mock.Anything).
		Return(&resourcegroupstaggingapi.GetResourcesOutput{ResourceTagMappingList: mappings}, nil)

	top, err := f.service().GetTopSpendingResources(testContext(t), testCreds)
	require.NoError(t, err)
	require.Len(t, top, DefaultTopResources)
	for _, r := range top {
		assert.Equal(t, "EC2 Instance", r.Type)
	}
}

func TestGetComprehensiveAnalysis(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{result("2025-06-01", "2025-06-02", group("Amazon EC2", "5"))},
	}, nil)
	f.tagging.On("GetResources", mock.Anything, mock.Anything).Return(&resourcegroupstaggingapi.GetResourcesOutput{
		ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
			mapping("arn:aws:ec2:us-east-1:123456789012:instance/i-1", "Owner", "alice", "Project", "atlas"),
		},
	}, nil)
	f.recommender.On("ListRecommendations", mock.Anything, mock.Anything).Return([]domain.Recommendation{
		{ID: "rec-1", Type: "Rightsize", Severity: domain.SeverityMedium, Resource: "i-1"},
	}, nil)

	analysis, err := f.service().GetComprehensiveAnalysis(testContext(t), testCreds)
	require.NoError(t, err)

	assert.Equal(t, "5", analysis.TotalMonthlyCost.String())
	require.Len(t, analysis.ServiceCosts, 1)
	require.Len(t, analysis.UserCosts, 1)
	assert.Equal(t, "alice", analysis.UserCosts[0].User)
	require.Len(t, analysis.ProjectCosts, 1)
	assert.Equal(t, "atlas", analysis.ProjectCosts[0].Project)
	require.Len(t, analysis.ResourceCosts, 1)
	assert.True(t, analysis.ResourceCosts[0].Estimated)
	require.Len(t, analysis.TopSpendingResources, 1)
	assert.Len(t, analysis.CostTrendData, 1)
	assert.Len(t, analysis.DailyCostData, 1)
	assert.Len(t, analysis.WeeklyCostData, 12)
	require.Len(t, analysis.Recommendations, 1)
	assert.Equal(t, "rec-1", analysis.Recommendations[0].ID)
}

func TestGetComprehensiveAnalysis_FailsFast(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDeniedException"))
	f.tagging.On("GetResources", mock.Anything, mock.Anything).
		Return(&resourcegroupstaggingapi.GetResourcesOutput{}, nil)
	f.recommender.On("ListRecommendations", mock.Anything, mock.Anything).Return([]domain.Recommendation{}, nil)

	analysis, err := f.service().GetComprehensiveAnalysis(testContext(t), testCreds)
	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.Contains(t, err.Error(), "failed to get cost and usage")
}

func TestGetComprehensiveAnalysis_RecommendationsFailure(t *testing.T) {
	f := newFixture()
	f.ce.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(&costexplorer.GetCostAndUsageOutput{}, nil)
	f.tagging.On("GetResources", mock.Anything, mock.Anything).
		Return(&resourcegroupstaggingapi.GetResourcesOutput{}, nil)
	denied := errors.New("AccessDeniedException")
	f.recommender.On("ListRecommendations", mock.Anything, mock.Anything).Return(nil, denied)

	analysis, err := f.service().GetComprehensiveAnalysis(testContext(t), testCreds)
	require.ErrorIs(t, err, denied)
	assert.Nil(t, analysis)
}

func TestRegistry(t *testing.T) {
	a := &mockAnalyzer{service: "Amazon S3"}
	reg, err := NewRegistry(a)
	require.NoError(t, err)

	assert.Error(t, reg.Register(&mockAnalyzer{service: "Amazon S3"}))
	assert.Error(t, reg.Register(&mockAnalyzer{}))
	require.NoError(t, reg.Register(&mockAnalyzer{service: "AWS Lambda"}))

	got, ok := reg.Get("Amazon S3")
	assert.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []string{"AWS Lambda", "Amazon S3"}, reg.ListServices())
}
