package adapters

import (
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/models/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccountMapping(t *testing.T) {
	created := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	acc := domain.Account{
		AccountID: "123456789012",
		RoleARN:   "arn:aws:iam::123456789012:role/Reader",
		Name:      "prod",
		CreatedAt: created,
	}

	stored := MapDomainAccountToStore(acc)
	assert.Equal(t, "2025-06-01T08:30:00Z", stored.CreatedAt)
	assert.Equal(t, acc, MapStoreAccountToDomain(stored))

	legacy := MapStoreAccountToDomain(store.Account{AccountID: "123456789012", CreatedAt: "yesterday"})
	assert.True(t, legacy.CreatedAt.IsZero())
	assert.Empty(t, MapDomainAccountToStore(legacy).CreatedAt)
}

func TestMapAnalysisDomainToApi(t *testing.T) {
	a := domain.Analysis{
		TotalMonthlyCost: decimal.RequireFromString("42.123457"),
		ServiceCosts:     []domain.ServiceCost{{Service: "Amazon S3", Cost: decimal.RequireFromString("1.5")}},
		DailyCostData: []domain.DailyCost{{
			Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Cost: decimal.NewFromInt(3),
		}},
		TopSpendingResources: []domain.ResourceDetail{{
			ID:     "i-abc",
			Status: domain.ResourceStatusRunning,
			Cost:   decimal.NewFromInt(15),
			Tags:   []domain.Tag{{Key: "Env", Value: "prod"}},
		}},
	}

	out := MapAnalysisDomainToApi(a)
	assert.Equal(t, 42.123457, out.TotalMonthlyCost)
	assert.Equal(t, []api.ServiceCost{{Service: "Amazon S3", Cost: 1.5}}, out.ServiceCosts)
	assert.Equal(t, "2025-06-02", out.DailyCostData[0].Date)
	assert.Equal(t, []api.ServiceCost{}, out.DailyCostData[0].Services)
	assert.Equal(t, "running", out.TopSpendingResources[0].Status)
	assert.Equal(t, []api.Tag{{Key: "Env", Value: "prod"}}, out.TopSpendingResources[0].Tags)
	assert.NotNil(t, out.Recommendations)
	assert.NotNil(t, out.UserCosts)
}

func TestMapDomainPrincipalToApi(t *testing.T) {
	p := MapDomainPrincipalToApi(domain.Principal{ID: "u1"}, "admin")
	assert.Equal(t, []string{}, p.Groups)
	assert.False(t, p.IsAdmin)

	p = MapDomainPrincipalToApi(domain.Principal{ID: "u1", Groups: []string{"admin"}}, "admin")
	assert.True(t, p.IsAdmin)
}
