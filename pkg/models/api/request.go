package api

// CostRequest is the body of every /api/cost endpoint.
type CostRequest struct {
	AccountID   string `json:"accountId" validate:"required,aws_account_id"`
	RoleARN     string `json:"roleArn" validate:"required,aws_role_arn"`
	ServiceName string `json:"serviceName,omitempty"`
}

type CreateAccountRequest struct {
	AccountID string `json:"accountId" validate:"required,aws_account_id"`
	RoleARN   string `json:"roleArn" validate:"required,aws_role_arn"`
	Name      string `json:"name" validate:"required,max=128"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin viewer"`
}

type UpdateUserAccountsRequest struct {
	AccountIDs []string `json:"accountIds" validate:"dive,aws_account_id"`
}
