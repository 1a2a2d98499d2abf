package api

import "time"

type Account struct {
	AccountID string    `json:"accountId"`
	RoleARN   string    `json:"roleArn"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Enabled  bool   `json:"enabled"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

type UserAccounts struct {
	UserID     string   `json:"userId"`
	AccountIDs []string `json:"accountIds"`
}

type Principal struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
	IsAdmin  bool     `json:"isAdmin"`
}

type CredentialsCheck struct {
	Valid     bool   `json:"valid"`
	AccountID string `json:"accountId"`
}
