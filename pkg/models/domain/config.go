package domain

import "fmt"

type ProfileType string

const (
	ProfileTypeStatic ProfileType = "static"
	ProfileTypeRole   ProfileType = "role"
	ProfileTypeSSO    ProfileType = "sso"
)

// ConfigProfile is one profile of the AWS shared config/credentials files.
type ConfigProfile struct {
	Name    string
	Type    ProfileType
	Region  string
	RoleARN string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}
