package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/models/store"
	"github.com/de-tools/cost-atlas/pkg/store/dynamo"
	"github.com/rs/zerolog"
)

type Store interface {
	ListAccounts(ctx context.Context) ([]store.Account, error)
	GetAccount(ctx context.Context, accountID string) (*store.Account, error)
	GetAccounts(ctx context.Context, accountIDs []string) ([]store.Account, error)
	CreateAccount(ctx context.Context, account store.Account) error
}

type dynamoStore struct {
	client   dynamo.API
	settings dynamo.Settings
}

func NewStore(client dynamo.API, settings dynamo.Settings) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	if settings.AccountsTable == "" {
		return nil, fmt.Errorf("accounts table name is empty")
	}
	return &dynamoStore{
		client:   client,
		settings: settings.WithDefaults(),
	}, nil
}

func (s *dynamoStore) ListAccounts(ctx context.Context) ([]store.Account, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.settings.AccountsTable),
	})

	accounts := make([]store.Account, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accounts: %w", err)
		}
		var batch []store.Account
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
		}
		accounts = append(accounts, batch...)
	}
	return accounts, nil
}

func (s *dynamoStore) GetAccount(ctx context.Context, accountID string) (*store.Account, error) {
	key, err := store.Account{AccountID: accountID}.GetKey()
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.settings.AccountsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}

	var account store.Account
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", accountID, err)
	}
	return &account, nil
}

// GetAccounts returns the stored subset of accountIDs. Unknown ids are skipped.
func (s *dynamoStore) GetAccounts(ctx context.Context, accountIDs []string) ([]store.Account, error) {
	logger := zerolog.Ctx(ctx)
	accounts := make([]store.Account, 0, len(accountIDs))

	for _, chunk := range dynamo.Chunk(unique(accountIDs), dynamo.MaxBatchGet) {
		keys := make([]map[string]types.AttributeValue, 0, len(chunk))
		for _, id := range chunk {
			key, err := store.Account{AccountID: id}.GetKey()
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}

		pending := map[string]types.KeysAndAttributes{
			s.settings.AccountsTable: {Keys: keys},
		}
		for attempt := 0; len(pending[s.settings.AccountsTable].Keys) > 0; attempt++ {
			if attempt > s.settings.MaxRetries {
				logger.Warn().
					Int("unprocessed", len(pending[s.settings.AccountsTable].Keys)).
					Msg("giving up on unprocessed account keys")
				return nil, fmt.Errorf("batch get from %s left unprocessed keys", s.settings.AccountsTable)
			}

			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get accounts: %w", err)
			}

			var batch []store.Account
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[s.settings.AccountsTable], &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
			}
			accounts = append(accounts, batch...)
			pending = out.UnprocessedKeys
		}
	}
	return accounts, nil
}

// CreateAccount stores a new account. Accounts are immutable, so an existing id is an error.
func (s *dynamoStore) CreateAccount(ctx context.Context, account store.Account) error {
	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.settings.AccountsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": store.AccountKey,
		},
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return fmt.Errorf("account %s: %w", account.AccountID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to put account %s: %w", account.AccountID, err)
	}
	return nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
