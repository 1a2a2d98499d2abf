package users

import (
	"net/http"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/handlers/respond"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/server/middleware"
	"github.com/de-tools/cost-atlas/pkg/services/directory"
	"github.com/de-tools/cost-atlas/pkg/services/registry"
	"github.com/go-chi/chi/v5"
)

type Validator interface {
	Struct(s any) error
}

type Handler struct {
	directory  directory.Service
	registry   registry.Service
	validator  Validator
	adminGroup string
}

func NewHandler(directory directory.Service, registry registry.Service, validator Validator, adminGroup string) *Handler {
	return &Handler{
		directory:  directory,
		registry:   registry,
		validator:  validator,
		adminGroup: adminGroup,
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	respond.OK(w, r, adapters.MapDomainPrincipalToApi(principal, h.adminGroup))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListUsers(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	response := make([]api.User, 0, len(users))
	for _, u := range users {
		response = append(response, adapters.MapDomainUserToApi(u))
	}
	respond.OK(w, r, response)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req api.UpdateRoleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.directory.SetRole(r.Context(), userID, domain.Role(req.Role)); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, map[string]string{"id": userID, "role": req.Role})
}

func (h *Handler) GetUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	ids, err := h.registry.GetUserAccounts(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, api.UserAccounts{UserID: userID, AccountIDs: ids})
}

// SetUserAccounts replaces the user's account list wholesale.
func (h *Handler) SetUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req api.UpdateUserAccountsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.registry.SetUserAccounts(r.Context(), userID, req.AccountIDs); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.GetUserAccounts(w, r)
}
