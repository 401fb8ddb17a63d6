package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	BackendMSAL = "msal"
	BackendOIDC = "oidc"

	GrantAuthorizationCode = "authorization-code"
	GrantDeviceCode        = "device-code"
	GrantClientCredentials = "client-credentials"

	DefaultAuthorityHost = "https://login.microsoftonline.com"
	DefaultRedirectURI   = "http://localhost"
	DefaultProfileName   = "default"
)

// DefaultScopes is used for the msal backend when neither the profile nor
// an override names any.
var DefaultScopes = []string{"https://graph.microsoft.com/.default"}

// DefaultOIDCScopes is the oidc backend's counterpart of DefaultScopes. It
// asks for an ID token so cached accounts carry a username.
var DefaultOIDCScopes = []string{"openid", "email", "profile"}

// DefaultScopesFor returns a copy of the default scopes for backend.
func DefaultScopesFor(backend string) []string {
	if backend == BackendOIDC {
		return append([]string(nil), DefaultOIDCScopes...)
	}
	return append([]string(nil), DefaultScopes...)
}

// ClientConfig is the fully resolved, read-only description of the client
// that requests tokens. Build it with Resolve; do not modify it afterwards.
type ClientConfig struct {
	Profile         string
	Backend         string
	ClientID        string
	TenantID        string
	Authority       string
	Scopes          []string
	ClientSecret    string
	GrantType       string
	RedirectURI     string
	LoginHint       string
	CAFile          string
	InsecureSkipTLS bool
	ExtraAuthParams map[string]string
}

// Confidential reports whether a client secret is configured.
func (c ClientConfig) Confidential() bool {
	return c.ClientSecret != ""
}

// CacheKey identifies this client's entries in the credential store.
func (c ClientConfig) CacheKey() string {
	return c.Profile + "/" + c.ClientID
}

func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client-id is required")
	}
	switch c.Backend {
	case BackendMSAL, BackendOIDC:
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	switch c.GrantType {
	case GrantAuthorizationCode, GrantDeviceCode:
	case GrantClientCredentials:
		if !c.Confidential() {
			return errors.New("client-credentials grant requires a client secret")
		}
	default:
		return fmt.Errorf("unsupported grant type: %s", c.GrantType)
	}
	if c.Authority == "" {
		if c.Backend == BackendMSAL {
			return errors.New("tenant-id or authority is required")
		}
		return errors.New("authority is required")
	}
	u, err := url.Parse(c.Authority)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid authority: %s", c.Authority)
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	return nil
}

// DeriveAuthority builds <host>/<tenant>. It returns "" when tenantID is empty.
func DeriveAuthority(host, tenantID string) string {
	tenantID = strings.Trim(strings.TrimSpace(tenantID), "/")
	if tenantID == "" {
		return ""
	}
	if host == "" {
		host = DefaultAuthorityHost
	}
	return strings.TrimRight(host, "/") + "/" + tenantID
}

// NormalizeScopes trims, drops empties and removes duplicates, keeping the
// first occurrence so the requested order is preserved.
func NormalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
