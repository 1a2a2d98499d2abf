package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchWrite is the BatchWriteItem request limit.
	MaxBatchWrite = 25
	// MaxBatchGet is the BatchGetItem request limit.
	MaxBatchGet = 100

	defaultMaxRetries = 5
	defaultBackoff    = 100 * time.Millisecond
)

type API interface {
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type Settings struct {
	AccountsTable string
	MappingsTable string
	// MaxRetries bounds how many times unprocessed batch items are resubmitted.
	MaxRetries int
	Backoff    time.Duration
}

func (s Settings) WithDefaults() Settings {
	if s.MaxRetries <= 0 {
		s.MaxRetries = defaultMaxRetries
	}
	if s.Backoff <= 0 {
		s.Backoff = defaultBackoff
	}
	return s
}

func NewClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	var chunks [][]T
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}

// WriteBatch submits requests in chunks of MaxBatchWrite and resubmits unprocessed items
// until they drain or settings.MaxRetries is exhausted.
func WriteBatch(ctx context.Context, client API, settings Settings, table string, requests []types.WriteRequest) error {
	settings = settings.WithDefaults()

	for _, chunk := range Chunk(requests, MaxBatchWrite) {
		pending := map[string][]types.WriteRequest{table: chunk}
		for attempt := 0; len(pending[table]) > 0; attempt++ {
			if attempt > settings.MaxRetries {
				return fmt.Errorf("batch write to %s left %d unprocessed items", table, len(pending[table]))
			}
			if attempt > 0 {
				if err := sleep(ctx, settings.Backoff*time.Duration(attempt)); err != nil {
					return err
				}
			}

			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch write to %s: %w", table, err)
			}
			pending = out.UnprocessedItems
			if pending == nil {
				break
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
