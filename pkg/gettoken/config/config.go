package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"
)

type Config struct {
	Version        string    `yaml:"version"`
	CurrentProfile string    `yaml:"current-profile,omitempty"`
	Profiles       []Profile `yaml:"profiles,omitempty"`
	Settings       Settings  `yaml:"settings,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
	TokenStorage string `yaml:"token-storage,omitempty"`
	PrintToken   bool   `yaml:"print-token,omitempty"`
	LogLevel     string `yaml:"log-level,omitempty"`
}

// Profile is one application registration at one identity provider.
type Profile struct {
	Name             string            `yaml:"name"`
	Backend          string            `yaml:"backend,omitempty"`
	ClientID         string            `yaml:"client-id"`
	TenantID         string            `yaml:"tenant-id,omitempty"`
	Authority        string            `yaml:"authority,omitempty"`
	AuthorityHost    string            `yaml:"authority-host,omitempty"`
	Scopes           []string          `yaml:"scopes,omitempty"`
	ClientSecret     string            `yaml:"client-secret,omitempty"`
	ClientSecretEnv  string            `yaml:"client-secret-env,omitempty"`
	ClientSecretFile string            `yaml:"client-secret-file,omitempty"`
	GrantType        string            `yaml:"grant-type,omitempty"`
	RedirectURI      string            `yaml:"redirect-uri,omitempty"`
	LoginHint        string            `yaml:"login-hint,omitempty"`
	CAFile           string            `yaml:"ca-file,omitempty"`
	InsecureSkipTLS  bool              `yaml:"insecure-skip-tls-verify,omitempty"`
	ExtraAuthParams  map[string]string `yaml:"extra-auth-params,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Settings: Settings{
			OutputFormat: "text",
			TokenStorage: "file",
			LogLevel:     "warn",
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
// gettoken must run without any config file when flags or the environment
// carry the client settings.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := DefaultConfig()
			return &def, nil
		}
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) FindProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

func (c *Config) CurrentProfileOrDefault() string {
	if c.CurrentProfile != "" {
		return c.CurrentProfile
	}
	if len(c.Profiles) > 0 {
		return c.Profiles[0].Name
	}
	return ""
}

// UpsertProfile replaces the profile with the same name or appends it.
func (c *Config) UpsertProfile(p Profile) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return
		}
	}
	c.Profiles = append(c.Profiles, p)
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	seen := map[string]struct{}{}
	for _, p := range c.Profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return errors.New("profile name cannot be empty")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate profile: %s", name)
		}
		seen[name] = struct{}{}
	}
	if c.CurrentProfile != "" {
		if _, err := c.FindProfile(c.CurrentProfile); err != nil {
			return fmt.Errorf("current-profile: %w", err)
		}
	}
	return nil
}
