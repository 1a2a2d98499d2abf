// Package directory lists identity provider users and manages their role through group membership.
package directory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const groupLookupConcurrency = 4

type API interface {
	cip.ListUsersAPIClient
	cip.AdminListGroupsForUserAPIClient
	AdminAddUserToGroup(ctx context.Context, params *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminRemoveUserFromGroup(ctx context.Context, params *cip.AdminRemoveUserFromGroupInput, optFns ...func(*cip.Options)) (*cip.AdminRemoveUserFromGroupOutput, error)
}

type Service interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, userID string, role domain.Role) error
}

type Settings struct {
	UserPoolID string
	AdminGroup string
	// ViewerGroup is optional. When set, viewers are kept in it as well.
	ViewerGroup string
}

type service struct {
	client   API
	settings Settings
}

func NewService(client API, settings Settings) Service {
	return &service{client: client, settings: settings}
}

func (s *service) ListUsers(ctx context.Context) ([]domain.User, error) {
	paginator := cip.NewListUsersPaginator(s.client, &cip.ListUsersInput{
		UserPoolId: aws.String(s.settings.UserPoolID),
	})

	var users []domain.User
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range page.Users {
			users = append(users, mapUser(u))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupLookupConcurrency)
	for i := range users {
		g.Go(func() error {
			groups, err := s.groups(gctx, users[i].Username)
			if err != nil {
				return err
			}
			users[i].Role = s.roleOf(groups)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if users == nil {
		users = []domain.User{}
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *service) SetRole(ctx context.Context, userID string, role domain.Role) error {
	logger := zerolog.Ctx(ctx)

	if !role.Valid() {
		return domain.NewValidationError("role", "role must be one of: admin, viewer")
	}

	username, err := s.username(ctx, userID)
	if err != nil {
		return err
	}

	if role == domain.RoleAdmin {
		err = s.addToGroup(ctx, username, s.settings.AdminGroup)
		if err == nil && s.settings.ViewerGroup != "" {
			err = s.removeFromGroup(ctx, username, s.settings.ViewerGroup)
		}
	} else {
		err = s.removeFromGroup(ctx, username, s.settings.AdminGroup)
		if err == nil && s.settings.ViewerGroup != "" {
			err = s.addToGroup(ctx, username, s.settings.ViewerGroup)
		}
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("user", userID).
		Str("role", string(role)).
		Msg("user role updated")
	return nil
}

// username resolves the pool username of the user whose sub is userID.
func (s *service) username(ctx context.Context, userID string) (string, error) {
	out, err := s.client.ListUsers(ctx, &cip.ListUsersInput{
		UserPoolId: aws.String(s.settings.UserPoolID),
		Filter:     aws.String(fmt.Sprintf("sub = %q", userID)),
		Limit:      aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	if len(out.Users) == 0 {
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return aws.ToString(out.Users[0].Username), nil
}

func (s *service) groups(ctx context.Context, username string) ([]string, error) {
	paginator := cip.NewAdminListGroupsForUserPaginator(s.client, &cip.AdminListGroupsForUserInput{
		UserPoolId: aws.String(s.settings.UserPoolID),
		Username:   aws.String(username),
	})

	var groups []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list groups of %s: %w", username, err)
		}
		for _, g := range page.Groups {
			groups = append(groups, aws.ToString(g.GroupName))
		}
	}
	return groups, nil
}

func (s *service) addToGroup(ctx context.Context, username, group string) error {
	_, err := s.client.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(s.settings.UserPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	return wrap(err, "failed to add %s to group %s", username, group)
}

func (s *service) removeFromGroup(ctx context.Context, username, group string) error {
	_, err := s.client.AdminRemoveUserFromGroup(ctx, &cip.AdminRemoveUserFromGroupInput{
		UserPoolId: aws.String(s.settings.UserPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	return wrap(err, "failed to remove %s from group %s", username, group)
}

func (s *service) roleOf(groups []string) domain.Role {
	if slices.Contains(groups, s.settings.AdminGroup) {
		return domain.RoleAdmin
	}
	return domain.RoleViewer
}

func wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf(format+": %w", append(args, domain.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func mapUser(u types.UserType) domain.User {
	user := domain.User{
		Username: aws.ToString(u.Username),
		Enabled:  u.Enabled,
		Status:   string(u.UserStatus),
	}
	for _, attr := range u.Attributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			user.ID = aws.ToString(attr.Value)
		case "email":
			user.Email = aws.ToString(attr.Value)
		}
	}
	if user.ID == "" {
		user.ID = user.Username
	}
	return user
}
