// Package config loads the service configuration and the AWS shared config profiles.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "COST_ATLAS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AWS      AWSConfig      `mapstructure:"aws"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cost     CostConfig     `mapstructure:"cost"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type AWSConfig struct {
	Region          string        `mapstructure:"region"`
	Profile         string        `mapstructure:"profile"`
	RoleSessionName string        `mapstructure:"role_session_name"`
	RoleDuration    time.Duration `mapstructure:"role_duration"`
}

type DynamoDBConfig struct {
	AccountsTable string        `mapstructure:"accounts_table"`
	MappingsTable string        `mapstructure:"mappings_table"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Backoff       time.Duration `mapstructure:"backoff"`
}

type AuthConfig struct {
	JWKSURL     string `mapstructure:"jwks_url"`
	Issuer      string `mapstructure:"issuer"`
	ClientID    string `mapstructure:"client_id"`
	AdminGroup  string `mapstructure:"admin_group"`
	ViewerGroup string `mapstructure:"viewer_group"`
	UserPoolID  string `mapstructure:"user_pool_id"`
}

type CostConfig struct {
	TopResources int `mapstructure:"top_resources"`
	TrendMonths  int `mapstructure:"trend_months"`
	// InventoryRegions are scanned for EC2 and RDS inventory. Empty means the base region.
	InventoryRegions []string `mapstructure:"inventory_regions"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Console switches from JSON lines to zerolog's human readable writer.
	Console bool `mapstructure:"console"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.shutdown_timeout": "10s",
	"aws.region":              DefaultRegion,
	"aws.profile":             "",
	"aws.role_session_name":   "cost-atlas",
	"aws.role_duration":       "15m",
	"dynamodb.accounts_table": "cost-atlas-accounts",
	"dynamodb.mappings_table": "cost-atlas-user-accounts",
	"dynamodb.max_retries":    5,
	"dynamodb.backoff":        "100ms",
	"auth.jwks_url":           "",
	"auth.issuer":             "",
	"auth.client_id":          "",
	"auth.admin_group":        "admin",
	"auth.viewer_group":       "",
	"auth.user_pool_id":       "",
	"cost.top_resources":      10,
	"cost.trend_months":       6,
	"cost.inventory_regions":  []string{},
	"log.level":               "info",
	"log.console":             false,
}

// Load reads the optional config file at path, then applies COST_ATLAS_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the web server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.JWKSURL == "" {
		missing = append(missing, "auth.jwks_url")
	}
	if c.Auth.UserPoolID == "" {
		missing = append(missing, "auth.user_pool_id")
	}
	if c.Server.Port <= 0 {
		missing = append(missing, "server.port")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
