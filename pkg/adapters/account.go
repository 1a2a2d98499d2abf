package adapters

import (
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/models/store"
)

func MapStoreAccountToDomain(a store.Account) domain.Account {
	account := domain.Account{
		AccountID: a.AccountID,
		RoleARN:   a.RoleARN,
		Name:      a.Name,
	}
	if created, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
		account.CreatedAt = created.UTC()
	}
	return account
}

func MapDomainAccountToStore(a domain.Account) store.Account {
	account := store.Account{
		AccountID: a.AccountID,
		RoleARN:   a.RoleARN,
		Name:      a.Name,
	}
	if !a.CreatedAt.IsZero() {
		account.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return account
}

func MapDomainAccountToApi(a domain.Account) api.Account {
	return api.Account{
		AccountID: a.AccountID,
		RoleARN:   a.RoleARN,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
}

func MapApiCreateAccountToDomain(req api.CreateAccountRequest) domain.Account {
	return domain.Account{
		AccountID: req.AccountID,
		RoleARN:   req.RoleARN,
		Name:      req.Name,
	}
}

func MapApiCostRequestToCredentials(req api.CostRequest) domain.Credentials {
	return domain.Credentials{AccountID: req.AccountID, RoleARN: req.RoleARN}
}

func MapDomainUserToApi(u domain.User) api.User {
	return api.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Enabled:  u.Enabled,
		Status:   u.Status,
		Role:     string(u.Role),
	}
}

func MapDomainPrincipalToApi(p domain.Principal, adminGroup string) api.Principal {
	groups := p.Groups
	if groups == nil {
		groups = []string{}
	}
	return api.Principal{
		ID:       p.ID,
		Email:    p.Email,
		Username: p.Username,
		Groups:   groups,
		IsAdmin:  p.IsAdmin(adminGroup),
	}
}
