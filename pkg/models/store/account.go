package store

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	AccountKey = "accountId"
	UserKey    = "userId"
)

type Account struct {
	AccountID string `dynamodbav:"accountId"`
	RoleARN   string `dynamodbav:"roleArn"`
	Name      string `dynamodbav:"name"`
	CreatedAt string `dynamodbav:"createdAt,omitempty"` // RFC3339
}

func (a Account) GetKey() (map[string]types.AttributeValue, error) {
	id, err := attributevalue.Marshal(a.AccountID)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{AccountKey: id}, nil
}

type UserAccountMapping struct {
	UserID    string `dynamodbav:"userId"`
	AccountID string `dynamodbav:"accountId"`
}

func (m UserAccountMapping) GetKey() (map[string]types.AttributeValue, error) {
	user, err := attributevalue.Marshal(m.UserID)
	if err != nil {
		return nil, err
	}
	account, err := attributevalue.Marshal(m.AccountID)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{UserKey: user, AccountKey: account}, nil
}
