package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

const profilePrefix = "profile "

// Registry enumerates the profiles of the AWS shared config and credentials files.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.ConfigProfile, error)
	GetProfile(ctx context.Context, name string) (domain.ConfigProfile, error)
}

type cfgRegistry struct {
	profiles map[string]domain.ConfigProfile
}

// SharedFiles returns the shared config and credentials paths, honoring the SDK's env overrides.
func SharedFiles() (configPath, credentialsPath string) {
	home, _ := os.UserHomeDir()
	configPath = os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = filepath.Join(home, ".aws", "config")
	}
	credentialsPath = os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credentialsPath == "" {
		credentialsPath = filepath.Join(home, ".aws", "credentials")
	}
	return configPath, credentialsPath
}

// NewRegistry loads both files. Missing files are treated as empty.
func NewRegistry(configPath, credentialsPath string) (Registry, error) {
	cfg, err := ini.LooseLoad(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	creds, err := ini.LooseLoad(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", credentialsPath, err)
	}

	r := &cfgRegistry{profiles: map[string]domain.ConfigProfile{}}
	for _, section := range creds.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		r.merge(section.Name(), section)
	}
	for _, section := range cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		name := section.Name()
		if name != "default" && !strings.HasPrefix(name, profilePrefix) {
			// sso-session and services sections are not profiles
			continue
		}
		r.merge(strings.TrimPrefix(name, profilePrefix), section)
	}
	return r, nil
}

func (cr *cfgRegistry) merge(name string, section *ini.Section) {
	p, ok := cr.profiles[name]
	if !ok {
		p = domain.ConfigProfile{Name: name, Type: domain.ProfileTypeStatic}
	}
	if region := section.Key("region").String(); region != "" {
		p.Region = region
	}
	if role := section.Key("role_arn").String(); role != "" {
		p.RoleARN = role
		p.Type = domain.ProfileTypeRole
	}
	if section.HasKey("sso_start_url") || section.HasKey("sso_session") {
		p.Type = domain.ProfileTypeSSO
	}
	cr.profiles[name] = p
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]domain.ConfigProfile, error) {
	profiles := make([]domain.ConfigProfile, 0, len(cr.profiles))
	for _, p := range cr.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (domain.ConfigProfile, error) {
	p, ok := cr.profiles[name]
	if !ok {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}
