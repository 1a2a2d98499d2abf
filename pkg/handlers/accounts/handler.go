package accounts

import (
	"net/http"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/handlers/respond"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/server/middleware"
	"github.com/de-tools/cost-atlas/pkg/services/registry"
)

type Validator interface {
	Struct(s any) error
}

type Handler struct {
	registry  registry.Service
	validator Validator
}

func NewHandler(registry registry.Service, validator Validator) *Handler {
	return &Handler{
		registry:  registry,
		validator: validator,
	}
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFrom(ctx)

	accounts, err := h.registry.ListAccounts(ctx, principal)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	response := make([]api.Account, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, adapters.MapDomainAccountToApi(a))
	}
	respond.OK(w, r, response)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAccountRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	account, err := h.registry.CreateAccount(r.Context(), adapters.MapApiCreateAccountToDomain(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, adapters.MapDomainAccountToApi(account))
}

// ValidateCredentials checks the credentials format and that the role can be assumed.
func (h *Handler) ValidateCredentials(w http.ResponseWriter, r *http.Request) {
	var req api.CostRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.registry.ValidateCredentials(r.Context(), adapters.MapApiCostRequestToCredentials(req)); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, api.CredentialsCheck{Valid: true, AccountID: req.AccountID})
}
