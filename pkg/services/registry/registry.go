// Package registry manages onboarded billing accounts and which users may see them.
package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/models/store"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo/accounts"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo/mappings"
	"github.com/rs/zerolog"
)

type Service interface {
	// ListAccounts returns every account to admins and only mapped accounts to everyone else.
	ListAccounts(ctx context.Context, principal domain.Principal) ([]domain.Account, error)
	// CreateAccount validates the credentials, proves the role can be assumed and stores the account.
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	ValidateCredentials(ctx context.Context, creds domain.Credentials) error
	// Authorize resolves the credentials a principal may query cost data with.
	Authorize(ctx context.Context, principal domain.Principal, creds domain.Credentials) (domain.Credentials, error)
	GetUserAccounts(ctx context.Context, userID string) ([]string, error)
	SetUserAccounts(ctx context.Context, userID string, accountIDs []string) error
}

type Validator interface {
	Credentials(creds domain.Credentials) error
	UserID(id string) error
}

type Verifier interface {
	Verify(ctx context.Context, creds domain.Credentials) error
}

type Settings struct {
	AdminGroup string
	Clock      func() time.Time
}

type service struct {
	accounts  accounts.Store
	mappings  mappings.Store
	validator Validator
	verifier  Verifier
	settings  Settings
}

func NewService(
	accountStore accounts.Store,
	mappingStore mappings.Store,
	validator Validator,
	verifier Verifier,
	settings Settings,
) Service {
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	return &service{
		accounts:  accountStore,
		mappings:  mappingStore,
		validator: validator,
		verifier:  verifier,
		settings:  settings,
	}
}

func (s *service) ListAccounts(ctx context.Context, principal domain.Principal) ([]domain.Account, error) {
	if principal.IsAdmin(s.settings.AdminGroup) {
		stored, err := s.accounts.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		return sortedAccounts(stored), nil
	}

	ids, err := s.GetUserAccounts(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	stored, err := s.accounts.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return sortedAccounts(stored), nil
}

func (s *service) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger := zerolog.Ctx(ctx)

	if err := s.ValidateCredentials(ctx, account.Credentials()); err != nil {
		return domain.Account{}, err
	}

	account.CreatedAt = s.settings.Clock().UTC().Truncate(time.Second)
	if err := s.accounts.CreateAccount(ctx, adapters.MapDomainAccountToStore(account)); err != nil {
		return domain.Account{}, err
	}

	logger.Info().
		Str("account", account.AccountID).
		Str("name", account.Name).
		Msg("account onboarded")
	return account, nil
}

func (s *service) ValidateCredentials(ctx context.Context, creds domain.Credentials) error {
	if err := s.validator.Credentials(creds); err != nil {
		return err
	}
	return s.verifier.Verify(ctx, creds)
}

func (s *service) Authorize(ctx context.Context, principal domain.Principal, creds domain.Credentials) (domain.Credentials, error) {
	if principal.IsAdmin(s.settings.AdminGroup) {
		return creds, nil
	}

	ids, err := s.GetUserAccounts(ctx, principal.ID)
	if err != nil {
		return domain.Credentials{}, err
	}
	if !slices.Contains(ids, creds.AccountID) {
		return domain.Credentials{}, fmt.Errorf("account %s is not assigned to the caller: %w", creds.AccountID, domain.ErrForbidden)
	}

	stored, err := s.accounts.GetAccount(ctx, creds.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Credentials{}, fmt.Errorf("account %s is not onboarded: %w", creds.AccountID, domain.ErrForbidden)
	}
	if err != nil {
		return domain.Credentials{}, err
	}
	if stored.RoleARN != creds.RoleARN {
		return domain.Credentials{}, fmt.Errorf("role %s does not belong to account %s: %w", creds.RoleARN, creds.AccountID, domain.ErrForbidden)
	}
	return adapters.MapStoreAccountToDomain(*stored).Credentials(), nil
}

func (s *service) GetUserAccounts(ctx context.Context, userID string) ([]string, error) {
	stored, err := s.mappings.ListUserAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stored))
	for _, m := range stored {
		ids = append(ids, m.AccountID)
	}
	slices.Sort(ids)
	return ids, nil
}

// SetUserAccounts replaces the user's mappings wholesale. Every account must already be onboarded.
func (s *service) SetUserAccounts(ctx context.Context, userID string, accountIDs []string) error {
	if err := s.validator.UserID(userID); err != nil {
		return err
	}

	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	known, err := s.accounts.GetAccounts(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[string]struct{}, len(known))
	for _, a := range known {
		found[a.AccountID] = struct{}{}
	}
	verr := &domain.ValidationError{}
	for i, id := range accountIDs {
		if _, ok := found[id]; !ok {
			verr.Fields = append(verr.Fields, domain.FieldError{
				Field:   fmt.Sprintf("accountIds[%d]", i),
				Message: fmt.Sprintf("account %s is not onboarded", id),
			})
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	return s.mappings.ReplaceUserAccounts(ctx, userID, ids)
}

func sortedAccounts(stored []store.Account) []domain.Account {
	out := make([]domain.Account, 0, len(stored))
	for _, a := range stored {
		out = append(out, adapters.MapStoreAccountToDomain(a))
	}
	slices.SortFunc(out, func(a, b domain.Account) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.AccountID, b.AccountID))
	})
	return out
}
