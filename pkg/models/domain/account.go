package domain

import (
	"slices"
	"time"
)

// Credentials identify a billing account and the read-only role assumed to query it.
type Credentials struct {
	AccountID string
	RoleARN   string
}

type Account struct {
	AccountID string
	RoleARN   string
	Name      string
	CreatedAt time.Time
}

func (a Account) Credentials() Credentials {
	return Credentials{AccountID: a.AccountID, RoleARN: a.RoleARN}
}

type UserAccountMapping struct {
	UserID    string
	AccountID string
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

type User struct {
	ID       string
	Username string
	Email    string
	Enabled  bool
	Status   string
	Role     Role
}

// Principal is the verified caller of an API request.
type Principal struct {
	ID       string
	Email    string
	Username string
	Groups   []string
}

func (p Principal) IsAdmin(adminGroup string) bool {
	return slices.Contains(p.Groups, adminGroup)
}
