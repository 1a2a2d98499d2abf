package cost

import (
	"context"
	"net/http"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/handlers/respond"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/server/middleware"
	costsvc "github.com/de-tools/cost-atlas/pkg/services/cost"
	"github.com/rs/zerolog"
)

type Authorizer interface {
	Authorize(ctx context.Context, principal domain.Principal, creds domain.Credentials) (domain.Credentials, error)
}

type Validator interface {
	Struct(s any) error
}

type Handler struct {
	cost       costsvc.Service
	authorizer Authorizer
	validator  Validator
}

func NewHandler(cost costsvc.Service, authorizer Authorizer, validator Validator) *Handler {
	return &Handler{
		cost:       cost,
		authorizer: authorizer,
		validator:  validator,
	}
}

type fetchFunc func(ctx context.Context, creds domain.Credentials, req api.CostRequest) (any, error)

// serve decodes and validates the credentials body, checks the caller may use them, then
// writes whatever fetch returns.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fetch fetchFunc) {
	ctx := r.Context()

	var req api.CostRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	creds, err := h.authorizer.Authorize(ctx, principal, adapters.MapApiCostRequestToCredentials(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	logger := zerolog.Ctx(ctx).With().Str("account", creds.AccountID).Logger()
	data, err := fetch(logger.WithContext(ctx), creds, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, data)
}

func (h *Handler) GetComprehensiveAnalysis(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		analysis, err := h.cost.GetComprehensiveAnalysis(ctx, creds)
		if err != nil {
			return nil, err
		}
		return adapters.MapAnalysisDomainToApi(*analysis), nil
	})
}

func (h *Handler) GetTotalMonthlyCost(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		total, err := h.cost.GetTotalMonthlyCost(ctx, creds)
		if err != nil {
			return nil, err
		}
		return api.TotalCost{TotalMonthlyCost: total.InexactFloat64()}, nil
	})
}

func (h *Handler) GetServiceCosts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		costs, err := h.cost.GetServiceCosts(ctx, creds)
		return adapters.MapServiceCostsDomainToApi(costs), err
	})
}

func (h *Handler) GetRegionCosts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		costs, err := h.cost.GetRegionCosts(ctx, creds)
		return adapters.MapRegionCostsDomainToApi(costs), err
	})
}

func (h *Handler) GetUserCosts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		costs, err := h.cost.GetUserCosts(ctx, creds)
		return adapters.MapUserCostsDomainToApi(costs), err
	})
}

func (h *Handler) GetProjectCosts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		costs, err := h.cost.GetProjectCosts(ctx, creds)
		return adapters.MapProjectCostsDomainToApi(costs), err
	})
}

// GetResources lists one service's resources when serviceName is given, otherwise the
// estimated cost of every tagged resource.
func (h *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, req api.CostRequest) (any, error) {
		if req.ServiceName != "" {
			resources, err := h.cost.GetResourcesForService(ctx, creds, req.ServiceName)
			return adapters.MapResourceDetailsDomainToApi(resources), err
		}
		costs, err := h.cost.GetResourceCosts(ctx, creds)
		return adapters.MapResourceCostsDomainToApi(costs), err
	})
}

func (h *Handler) GetTopSpendingResources(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		resources, err := h.cost.GetTopSpendingResources(ctx, creds)
		return adapters.MapResourceDetailsDomainToApi(resources), err
	})
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		recs, err := h.cost.GetRecommendations(ctx, creds)
		return adapters.MapRecommendationsDomainToApi(recs), err
	})
}

func (h *Handler) GetCostTrendData(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		points, err := h.cost.GetCostTrendData(ctx, creds)
		return adapters.MapTrendDomainToApi(points), err
	})
}

func (h *Handler) GetDailyCostData(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		days, err := h.cost.GetDailyCostData(ctx, creds)
		return adapters.MapDailyCostsDomainToApi(days), err
	})
}

func (h *Handler) GetWeeklyCostData(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, creds domain.Credentials, _ api.CostRequest) (any, error) {
		weeks, err := h.cost.GetWeeklyCostData(ctx, creds)
		return adapters.MapWeeklyCostsDomainToApi(weeks), err
	})
}
