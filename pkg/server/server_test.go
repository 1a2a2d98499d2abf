package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/auth"
	"github.com/de-tools/cost-atlas/pkg/services/validation"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCost struct {
	mock.Mock
}

func (m *mockCost) GetTotalMonthlyCost(ctx context.Context, creds domain.Credentials) (decimal.Decimal, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockCost) GetServiceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ServiceCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.ServiceCost), args.Error(1)
}

func (m *mockCost) GetRegionCosts(ctx context.Context, creds domain.Credentials) ([]domain.RegionCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.RegionCost), args.Error(1)
}

func (m *mockCost) GetUserCosts(ctx context.Context, creds domain.Credentials) ([]domain.UserCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.UserCost), args.Error(1)
}

func (m *mockCost) GetProjectCosts(ctx context.Context, creds domain.Credentials) ([]domain.ProjectCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.ProjectCost), args.Error(1)
}

func (m *mockCost) GetResourceCosts(ctx context.Context, creds domain.Credentials) ([]domain.ResourceCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.ResourceCost), args.Error(1)
}

func (m *mockCost) GetCostTrendData(ctx context.Context, creds domain.Credentials) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *mockCost) GetDailyCostData(ctx context.Context, creds domain.Credentials) ([]domain.DailyCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.DailyCost), args.Error(1)
}

func (m *mockCost) GetWeeklyCostData(ctx context.Context, creds domain.Credentials) ([]domain.WeeklyCost, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.WeeklyCost), args.Error(1)
}

func (m *mockCost) GetResourcesForService(ctx context.Context, creds domain.Credentials, serviceName string) ([]domain.ResourceDetail, error) {
	args := m.Called(ctx, creds, serviceName)
	return args.Get(0).([]domain.ResourceDetail), args.Error(1)
}

func (m *mockCost) GetTopSpendingResources(ctx context.Context, creds domain.Credentials) ([]domain.ResourceDetail, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.ResourceDetail), args.Error(1)
}

func (m *mockCost) GetRecommendations(ctx context.Context, creds domain.Credentials) ([]domain.Recommendation, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

func (m *mockCost) GetComprehensiveAnalysis(ctx context.Context, creds domain.Credentials) (*domain.Analysis, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) ListAccounts(ctx context.Context, principal domain.Principal) ([]domain.Account, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *mockRegistry) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *mockRegistry) ValidateCredentials(ctx context.Context, creds domain.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}

func (m *mockRegistry) Authorize(ctx context.Context, principal domain.Principal, creds domain.Credentials) (domain.Credentials, error) {
	args := m.Called(ctx, principal, creds)
	return args.Get(0).(domain.Credentials), args.Error(1)
}

func (m *mockRegistry) GetUserAccounts(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRegistry) SetUserAccounts(ctx context.Context, userID string, accountIDs []string) error {
	return m.Called(ctx, userID, accountIDs).Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockDirectory) SetRole(ctx context.Context, userID string, role domain.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

// tokenVerifier accepts "admin" and "viewer" as bearer tokens.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	switch token {
	case "admin":
		return adminPrincipal, nil
	case "viewer":
		return viewerPrincipal, nil
	default:
		return domain.Principal{}, auth.ErrUnauthenticated
	}
}

const (
	accountID = "123456789012"
	roleARN   = "arn:aws:iam::123456789012:role/Foo"
	userID    = "9a1c3b52-4f1d-4bb1-9d2e-5c6f7a8b9c0d"
)

var (
	adminPrincipal  = domain.Principal{ID: "admin-sub", Email: "root@example.com", Groups: []string{"admin"}}
	viewerPrincipal = domain.Principal{ID: userID, Email: "amy@example.com", Groups: []string{"viewer"}}
	creds           = domain.Credentials{AccountID: accountID, RoleARN: roleARN}
	credsBody       = `{"accountId":"123456789012","roleArn":"arn:aws:iam::123456789012:role/Foo"}`
)

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func data[T any]() func([]byte) (interface{}, error) {
	return func(raw []byte) (interface{}, error) {
		var e envelope[T]
		err := json.Unmarshal(raw, &e)
		return e.Data, err
	}
}

func errorBody(raw []byte) (interface{}, error) {
	var e api.ErrorResponse
	err := json.Unmarshal(raw, &e)
	return e, err
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	costSvc := new(mockCost)
	registrySvc := new(mockRegistry)
	directorySvc := new(mockDirectory)

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		AdminGroup:      "admin",
		Dependencies: Dependencies{
			Cost:      costSvc,
			Registry:  registrySvc,
			Directory: directorySvc,
			Verifier:  tokenVerifier{},
			Validator: validation.New(),
		},
	}
	testServer := httptest.NewServer(ConfigureRouter(&logger, config))
	defer testServer.Close()

	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		body           string
		setupMocks     func()
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "Healthz",
			method:         http.MethodGet,
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			expected:       map[string]string{"status": "ok"},
			parseResponse:  data[map[string]string](),
		},
		{
			name:           "MissingToken",
			method:         http.MethodPost,
			path:           "/api/cost/services",
			body:           credsBody,
			expectedStatus: http.StatusUnauthorized,
			expected:       api.ErrorResponse{Error: "missing bearer token"},
			parseResponse:  errorBody,
		},
		{
			name:           "InvalidToken",
			method:         http.MethodGet,
			path:           "/api/me",
			token:          "forged",
			expectedStatus: http.StatusUnauthorized,
			expected:       api.ErrorResponse{Error: "invalid or expired token"},
			parseResponse:  errorBody,
		},
		{
			name:           "Me",
			method:         http.MethodGet,
			path:           "/api/me",
			token:          "viewer",
			expectedStatus: http.StatusOK,
			expected: api.Principal{
				ID:     userID,
				Email:  "amy@example.com",
				Groups: []string{"viewer"},
			},
			parseResponse: data[api.Principal](),
		},
		{
			name:   "ServiceCosts",
			method: http.MethodPost,
			path:   "/api/cost/services",
			token:  "viewer",
			body:   credsBody,
			setupMocks: func() {
				registrySvc.On("Authorize", mock.Anything, viewerPrincipal, creds).Return(creds, nil).Once()
				costSvc.On("GetServiceCosts", mock.Anything, creds).Return([]domain.ServiceCost{
					{Service: "Amazon Elastic Compute Cloud - Compute", Cost: decimal.RequireFromString("12.5")},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       []api.ServiceCost{{Service: "Amazon Elastic Compute Cloud - Compute", Cost: 12.5}},
			parseResponse:  data[[]api.ServiceCost](),
		},
		{
			name:   "TotalCost",
			method: http.MethodPost,
			path:   "/api/cost/total",
			token:  "admin",
			body:   credsBody,
			setupMocks: func() {
				registrySvc.On("Authorize", mock.Anything, adminPrincipal, creds).Return(creds, nil).Once()
				costSvc.On("GetTotalMonthlyCost", mock.Anything, creds).
					Return(decimal.RequireFromString("42.123457"), nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       api.TotalCost{TotalMonthlyCost: 42.123457},
			parseResponse:  data[api.TotalCost](),
		},
		{
			name:   "ResourcesForService",
			method: http.MethodPost,
			path:   "/api/cost/resources",
			token:  "admin",
			body:   `{"accountId":"123456789012","roleArn":"arn:aws:iam::123456789012:role/Foo","serviceName":"EC2"}`,
			setupMocks: func() {
				registrySvc.On("Authorize", mock.Anything, adminPrincipal, creds).Return(creds, nil).Once()
				costSvc.On("GetResourcesForService", mock.Anything, creds, "EC2").Return([]domain.ResourceDetail{{
					ID:     "i-abc",
					Type:   "EC2 Instance",
					Status: domain.ResourceStatusRunning,
					Cost:   decimal.NewFromInt(15),
					Tags:   []domain.Tag{{Key: "Env", Value: "prod"}},
				}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected: []api.ResourceDetail{{
				ID:     "i-abc",
				Type:   "EC2 Instance",
				Status: "running",
				Cost:   15,
				Tags:   []api.Tag{{Key: "Env", Value: "prod"}},
			}},
			parseResponse: data[[]api.ResourceDetail](),
		},
		{
			name:           "InvalidCredentials",
			method:         http.MethodPost,
			path:           "/api/cost/trend",
			token:          "admin",
			body:           `{"accountId":"12345","roleArn":"arn:aws:iam::123:role/Foo"}`,
			expectedStatus: http.StatusBadRequest,
			expected: api.ErrorResponse{
				Error: "validation failed: accountId must be a 12-digit AWS account id; " +
					"roleArn must be an IAM role ARN like arn:aws:iam::123456789012:role/Name",
				Details: []api.FieldError{
					{Field: "accountId", Message: "accountId must be a 12-digit AWS account id"},
					{Field: "roleArn", Message: "roleArn must be an IAM role ARN like arn:aws:iam::123456789012:role/Name"},
				},
			},
			parseResponse: errorBody,
		},
		{
			name:   "UnmappedAccount",
			method: http.MethodPost,
			path:   "/api/cost/daily",
			token:  "viewer",
			body:   credsBody,
			setupMocks: func() {
				registrySvc.On("Authorize", mock.Anything, viewerPrincipal, creds).
					Return(domain.Credentials{}, domain.ErrForbidden).Once()
			},
			expectedStatus: http.StatusForbidden,
			expected:       api.ErrorResponse{Error: "forbidden"},
			parseResponse:  errorBody,
		},
		{
			name:   "UpstreamFailure",
			method: http.MethodPost,
			path:   "/api/cost/regions",
			token:  "admin",
			body:   credsBody,
			setupMocks: func() {
				registrySvc.On("Authorize", mock.Anything, adminPrincipal, creds).Return(creds, nil).Once()
				costSvc.On("GetRegionCosts", mock.Anything, creds).Return([]domain.RegionCost(nil),
					errors.New("failed to assume role arn:aws:iam::123456789012:role/Foo: AccessDenied")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expected:       api.ErrorResponse{Error: "failed to assume role arn:aws:iam::123456789012:role/Foo: AccessDenied"},
			parseResponse:  errorBody,
		},
		{
			name:   "ListAccounts",
			method: http.MethodGet,
			path:   "/api/accounts",
			token:  "viewer",
			setupMocks: func() {
				registrySvc.On("ListAccounts", mock.Anything, viewerPrincipal).Return([]domain.Account{
					{AccountID: accountID, RoleARN: roleARN, Name: "prod", CreatedAt: created},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       []api.Account{{AccountID: accountID, RoleARN: roleARN, Name: "prod", CreatedAt: created}},
			parseResponse:  data[[]api.Account](),
		},
		{
			name:           "CreateAccount_ViewerForbidden",
			method:         http.MethodPost,
			path:           "/api/accounts",
			token:          "viewer",
			body:           `{"accountId":"123456789012","roleArn":"arn:aws:iam::123456789012:role/Foo","name":"prod"}`,
			expectedStatus: http.StatusForbidden,
			expected:       api.ErrorResponse{Error: "admin role required"},
			parseResponse:  errorBody,
		},
		{
			name:   "CreateAccount",
			method: http.MethodPost,
			path:   "/api/accounts",
			token:  "admin",
			body:   `{"accountId":"123456789012","roleArn":"arn:aws:iam::123456789012:role/Foo","name":"prod"}`,
			setupMocks: func() {
				registrySvc.On("CreateAccount", mock.Anything, domain.Account{AccountID: accountID, RoleARN: roleARN, Name: "prod"}).
					Return(domain.Account{AccountID: accountID, RoleARN: roleARN, Name: "prod", CreatedAt: created}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expected:       api.Account{AccountID: accountID, RoleARN: roleARN, Name: "prod", CreatedAt: created},
			parseResponse:  data[api.Account](),
		},
		{
			name:   "CreateAccount_Duplicate",
			method: http.MethodPost,
			path:   "/api/accounts",
			token:  "admin",
			body:   `{"accountId":"123456789012","roleArn":"arn:aws:iam::123456789012:role/Foo","name":"again"}`,
			setupMocks: func() {
				registrySvc.On("CreateAccount", mock.Anything, mock.Anything).
					Return(domain.Account{}, domain.ErrAlreadyExists).Once()
			},
			expectedStatus: http.StatusConflict,
			expected:       api.ErrorResponse{Error: "already exists"},
			parseResponse:  errorBody,
		},
		{
			name:   "ValidateCredentials",
			method: http.MethodPost,
			path:   "/api/accounts/validate",
			token:  "admin",
			body:   credsBody,
			setupMocks: func() {
				registrySvc.On("ValidateCredentials", mock.Anything, creds).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       api.CredentialsCheck{Valid: true, AccountID: accountID},
			parseResponse:  data[api.CredentialsCheck](),
		},
		{
			name:   "ListUsers",
			method: http.MethodGet,
			path:   "/api/users",
			token:  "admin",
			setupMocks: func() {
				directorySvc.On("ListUsers", mock.Anything).Return([]domain.User{
					{ID: userID, Username: "amy", Email: "amy@example.com", Enabled: true, Status: "CONFIRMED", Role: domain.RoleViewer},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected: []api.User{
				{ID: userID, Username: "amy", Email: "amy@example.com", Enabled: true, Status: "CONFIRMED", Role: "viewer"},
			},
			parseResponse: data[[]api.User](),
		},
		{
			name:   "UpdateRole",
			method: http.MethodPut,
			path:   "/api/users/" + userID + "/role",
			token:  "admin",
			body:   `{"role":"admin"}`,
			setupMocks: func() {
				directorySvc.On("SetRole", mock.Anything, userID, domain.RoleAdmin).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       map[string]string{"id": userID, "role": "admin"},
			parseResponse:  data[map[string]string](),
		},
		{
			name:           "UpdateRole_Invalid",
			method:         http.MethodPut,
			path:           "/api/users/" + userID + "/role",
			token:          "admin",
			body:           `{"role":"owner"}`,
			expectedStatus: http.StatusBadRequest,
			expected: api.ErrorResponse{
				Error:   "validation failed: role must be one of: admin, viewer",
				Details: []api.FieldError{{Field: "role", Message: "role must be one of: admin, viewer"}},
			},
			parseResponse: errorBody,
		},
		{
			name:   "SetUserAccounts",
			method: http.MethodPut,
			path:   "/api/users/" + userID + "/accounts",
			token:  "admin",
			body:   `{"accountIds":["123456789012"]}`,
			setupMocks: func() {
				registrySvc.On("SetUserAccounts", mock.Anything, userID, []string{accountID}).Return(nil).Once()
				registrySvc.On("GetUserAccounts", mock.Anything, userID).Return([]string{accountID}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expected:       api.UserAccounts{UserID: userID, AccountIDs: []string{accountID}},
			parseResponse:  data[api.UserAccounts](),
		},
		{
			name:           "MalformedBody",
			method:         http.MethodPut,
			path:           "/api/users/" + userID + "/accounts",
			token:          "admin",
			body:           `{"accountIds":`,
			expectedStatus: http.StatusBadRequest,
			parseResponse:  errorBody,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setupMocks != nil {
				tc.setupMocks()
			}

			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req, err := http.NewRequest(tc.method, testServer.URL+tc.path, body)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(raw)
			require.NoError(t, err, "Failed to parse response")

			if tc.expected != nil {
				assert.Equal(t, tc.expected, actual)
			}
		})
	}

	costSvc.AssertExpectations(t)
	registrySvc.AssertExpectations(t)
	directorySvc.AssertExpectations(t)
}
