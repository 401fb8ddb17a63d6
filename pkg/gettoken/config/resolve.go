package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Overrides carries values given on the command line. Empty fields do not
// override anything.
type Overrides struct {
	Profile      string
	Backend      string
	ClientID     string
	TenantID     string
	Authority    string
	Scopes       []string
	GrantType    string
	ClientSecret string
	TokenStorage string
	LogLevel     string
	OutputFormat string
	PrintToken   bool
}

// LoadEnvFile loads KEY=value pairs from path (".env" when empty) into the
// process environment without replacing variables that are already set.
// A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Resolve picks the active profile and layers GETTOKEN_* environment
// variables and then ov on top of it.
func Resolve(cfg *Config, ov Overrides) (ClientConfig, error) {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}

	name := firstNonEmpty(ov.Profile, os.Getenv("GETTOKEN_PROFILE"))
	explicit := name != ""
	if name == "" {
		name = cfg.CurrentProfileOrDefault()
	}
	profile := Profile{Name: DefaultProfileName}
	if name != "" {
		found, err := cfg.FindProfile(name)
		switch {
		case err == nil:
			profile = *found
		case explicit && len(cfg.Profiles) > 0:
			return ClientConfig{}, err
		default:
			profile.Name = name
		}
	}

	cc := ClientConfig{
		Profile:         profile.Name,
		Backend:         firstNonEmpty(ov.Backend, os.Getenv("GETTOKEN_BACKEND"), profile.Backend, BackendMSAL),
		ClientID:        firstNonEmpty(ov.ClientID, os.Getenv("GETTOKEN_CLIENT_ID"), profile.ClientID),
		TenantID:        firstNonEmpty(ov.TenantID, os.Getenv("GETTOKEN_TENANT_ID"), profile.TenantID),
		GrantType:       firstNonEmpty(ov.GrantType, os.Getenv("GETTOKEN_GRANT_TYPE"), profile.GrantType, GrantAuthorizationCode),
		RedirectURI:     firstNonEmpty(os.Getenv("GETTOKEN_REDIRECT_URI"), profile.RedirectURI),
		LoginHint:       firstNonEmpty(os.Getenv("GETTOKEN_LOGIN_HINT"), profile.LoginHint),
		CAFile:          profile.CAFile,
		InsecureSkipTLS: profile.InsecureSkipTLS,
		ExtraAuthParams: copyParams(profile.ExtraAuthParams),
	}
	cc.Backend = strings.ToLower(cc.Backend)
	cc.GrantType = strings.ToLower(cc.GrantType)

	// An explicit tenant on the command line or in the environment wins over
	// an authority written in the file.
	authority := firstNonEmpty(ov.Authority, os.Getenv("GETTOKEN_AUTHORITY"))
	if authority == "" && (ov.TenantID != "" || os.Getenv("GETTOKEN_TENANT_ID") != "") {
		authority = DeriveAuthority(profile.AuthorityHost, cc.TenantID)
	}
	if authority == "" {
		authority = profile.Authority
	}
	if authority == "" && cc.Backend == BackendMSAL {
		authority = DeriveAuthority(profile.AuthorityHost, cc.TenantID)
	}
	cc.Authority = strings.TrimRight(authority, "/")

	switch {
	case len(ov.Scopes) > 0:
		cc.Scopes = NormalizeScopes(ov.Scopes)
	case os.Getenv("GETTOKEN_SCOPES") != "":
		cc.Scopes = NormalizeScopes(strings.Split(os.Getenv("GETTOKEN_SCOPES"), ","))
	case len(profile.Scopes) > 0:
		cc.Scopes = NormalizeScopes(profile.Scopes)
	default:
		cc.Scopes = DefaultScopesFor(cc.Backend)
	}

	secret := firstNonEmpty(ov.ClientSecret, os.Getenv("GETTOKEN_CLIENT_SECRET"))
	if secret == "" {
		var err error
		secret, err = ResolveClientSecret(profile.ClientSecret, profile.ClientSecretEnv, profile.ClientSecretFile)
		if err != nil {
			return ClientConfig{}, err
		}
	}
	cc.ClientSecret = secret

	if err := cc.Validate(); err != nil {
		return ClientConfig{}, fmt.Errorf("profile %s: %w", cc.Profile, err)
	}
	return cc, nil
}

// ResolveSettings applies environment and command-line overrides to the
// file settings.
func ResolveSettings(cfg *Config, ov Overrides) Settings {
	s := DefaultConfig().Settings
	if cfg != nil {
		s.OutputFormat = firstNonEmpty(cfg.Settings.OutputFormat, s.OutputFormat)
		s.TokenStorage = firstNonEmpty(cfg.Settings.TokenStorage, s.TokenStorage)
		s.LogLevel = firstNonEmpty(cfg.Settings.LogLevel, s.LogLevel)
		s.PrintToken = cfg.Settings.PrintToken
	}
	s.OutputFormat = firstNonEmpty(ov.OutputFormat, os.Getenv("GETTOKEN_OUTPUT"), s.OutputFormat)
	s.TokenStorage = firstNonEmpty(ov.TokenStorage, os.Getenv("GETTOKEN_TOKEN_STORAGE"), s.TokenStorage)
	s.LogLevel = firstNonEmpty(ov.LogLevel, os.Getenv("GETTOKEN_LOG_LEVEL"), s.LogLevel)
	if v, err := strconv.ParseBool(os.Getenv("GETTOKEN_PRINT_TOKEN")); err == nil {
		s.PrintToken = v
	}
	if ov.PrintToken {
		s.PrintToken = true
	}
	return s
}

func ResolveClientSecret(secret, secretEnv, secretFile string) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if secretEnv != "" {
		value := strings.TrimSpace(os.Getenv(secretEnv))
		if value == "" {
			return "", fmt.Errorf("client secret env var not set: %s", secretEnv)
		}
		return value, nil
	}
	if secretFile != "" {
		bytes, err := os.ReadFile(secretFile)
		if err != nil {
			return "", fmt.Errorf("failed to read client secret file: %w", err)
		}
		return strings.TrimSpace(string(bytes)), nil
	}
	return "", nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func copyParams(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
