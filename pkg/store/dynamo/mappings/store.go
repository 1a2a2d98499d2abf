package mappings

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/de-tools/cost-atlas/pkg/models/store"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo"
	"github.com/rs/zerolog"
)

type Store interface {
	ListUserAccounts(ctx context.Context, userID string) ([]store.UserAccountMapping, error)
	// ReplaceUserAccounts deletes every mapping of userID, then writes one per accountID.
	ReplaceUserAccounts(ctx context.Context, userID string, accountIDs []string) error
}

type dynamoStore struct {
	client   dynamo.API
	settings dynamo.Settings
}

func NewStore(client dynamo.API, settings dynamo.Settings) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	if settings.MappingsTable == "" {
		return nil, fmt.Errorf("mappings table name is empty")
	}
	return &dynamoStore{
		client:   client,
		settings: settings.WithDefaults(),
	}, nil
}

func (s *dynamoStore) ListUserAccounts(ctx context.Context, userID string) ([]store.UserAccountMapping, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.settings.MappingsTable),
		KeyConditionExpression: aws.String("#user = :user"),
		ExpressionAttributeNames: map[string]string{
			"#user": store.UserKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
	})

	mappings := make([]store.UserAccountMapping, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query accounts of user %s: %w", userID, err)
		}
		var batch []store.UserAccountMapping
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user accounts: %w", err)
		}
		mappings = append(mappings, batch...)
	}
	return mappings, nil
}

func (s *dynamoStore) ReplaceUserAccounts(ctx context.Context, userID string, accountIDs []string) error {
	logger := zerolog.Ctx(ctx)

	existing, err := s.ListUserAccounts(ctx, userID)
	if err != nil {
		return err
	}

	deletes := make([]types.WriteRequest, 0, len(existing))
	for _, m := range existing {
		key, err := m.GetKey()
		if err != nil {
			return err
		}
		deletes = append(deletes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}
	if err := dynamo.WriteBatch(ctx, s.client, s.settings, s.settings.MappingsTable, deletes); err != nil {
		return fmt.Errorf("failed to delete accounts of user %s: %w", userID, err)
	}

	puts := make([]types.WriteRequest, 0, len(accountIDs))
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		item, err := attributevalue.MarshalMap(store.UserAccountMapping{UserID: userID, AccountID: id})
		if err != nil {
			return fmt.Errorf("failed to marshal user account: %w", err)
		}
		puts = append(puts, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	if err := dynamo.WriteBatch(ctx, s.client, s.settings, s.settings.MappingsTable, puts); err != nil {
		return fmt.Errorf("failed to write accounts of user %s: %w", userID, err)
	}

	logger.Debug().
		Str("user", userID).
		Int("removed", len(deletes)).
		Int("added", len(puts)).
		Msg("replaced user accounts")
	return nil
}
