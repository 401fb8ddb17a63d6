package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/config"
	"github.com/owleyeart/bba/pkg/version"
)

type OIDCConfig struct {
	Authority       string
	ClientID        string
	ClientSecret    string
	Scopes          []string
	CAFile          string
	InsecureSkipTLS bool
	ExtraAuthParams map[string]string
	// RedirectURL is the loopback callback. Empty means 127.0.0.1 on a
	// random port with path /callback; a URL without port also gets a
	// random port.
	RedirectURL string
	LoginHint   string
	// OpenURL opens the login page. Nil means the system browser.
	OpenURL func(url string) error
	// Out receives instructions for the user. Defaults to stdout.
	Out io.Writer
}

// OIDCConfigFrom maps a resolved client configuration onto the OIDC flows.
func OIDCConfigFrom(cc config.ClientConfig) OIDCConfig {
	return OIDCConfig{
		Authority:       cc.Authority,
		ClientID:        cc.ClientID,
		ClientSecret:    cc.ClientSecret,
		Scopes:          cc.Scopes,
		CAFile:          cc.CAFile,
		InsecureSkipTLS: cc.InsecureSkipTLS,
		ExtraAuthParams: cc.ExtraAuthParams,
		RedirectURL:     cc.RedirectURI,
		LoginHint:       cc.LoginHint,
	}
}

type LoginResult struct {
	Token   *oauth2.Token
	IDToken string
}

type OAuthConfigResult struct {
	OAuthConfig oauth2.Config
	Client      *http.Client
}

func BuildOAuthConfig(ctx context.Context, cfg OIDCConfig, redirectURL string) (*OAuthConfigResult, error) {
	if cfg.Authority == "" || cfg.ClientID == "" {
		return nil, errors.New("authority and client-id are required")
	}
	httpClient, err := NewHTTPClient(cfg.CAFile, cfg.InsecureSkipTLS)
	if err != nil {
		return nil, err
	}
	ctx = oidc.ClientContext(ctx, httpClient)
	provider, err := oidc.NewProvider(ctx, cfg.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = config.DefaultScopesFor(config.BackendOIDC)
	}
	oauthCfg := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
	return &OAuthConfigResult{OAuthConfig: oauthCfg, Client: httpClient}, nil
}

// Login runs the authorization code grant with PKCE. It blocks until the
// browser redirects back to the loopback listener or ctx is done.
func Login(ctx context.Context, cfg OIDCConfig) (*LoginResult, error) {
	if cfg.Authority == "" || cfg.ClientID == "" {
		return nil, errors.New("authority and client-id are required")
	}

	var oauthResult *OAuthConfigResult
	code, err := AuthorizeLoopback(ctx, AuthCodeRequest{
		RedirectURL: cfg.RedirectURL,
		AuthURL: func(ctx context.Context, redirectURL string) (string, error) {
			var err error
			oauthResult, err = BuildOAuthConfig(ctx, cfg, redirectURL)
			if err != nil {
				return "", err
			}
			var authOpts []oauth2.AuthCodeOption
			if cfg.LoginHint != "" {
				authOpts = append(authOpts, oauth2.SetAuthURLParam("login_hint", cfg.LoginHint))
			}
			for k, v := range cfg.ExtraAuthParams {
				authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
			}
			return oauthResult.OAuthConfig.AuthCodeURL("", authOpts...), nil
		},
		OpenURL: cfg.openURL,
		Out:     cfg.out(),
	})
	if err != nil {
		return nil, err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, oauthResult.Client)
	token, err := oauthResult.OAuthConfig.Exchange(exchangeCtx, code.Code, oauth2.VerifierOption(code.Verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", providerError(err))
	}
	idToken, _ := token.Extra("id_token").(string)
	return &LoginResult{Token: token, IDToken: idToken}, nil
}

func (c OIDCConfig) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c OIDCConfig) openURL(u string) error {
	if c.OpenURL != nil {
		return c.OpenURL(u)
	}
	return OpenBrowser(u)
}

func newPKCEPair() (string, string, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func randomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// NewHTTPClient returns a client that verifies servers against caFile when
// one is given.
func NewHTTPClient(caFile string, insecure bool) (*http.Client, error) {
	transport, err := buildTransport(caFile, insecure)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}, nil
}

func buildTransport(caFile string, insecure bool) (http.RoundTripper, error) {
	tlsConfig, err := loadTLSConfig(caFile, insecure)
	if err != nil {
		return nil, err
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig
	return &userAgentTransport{base: base}, nil
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", version.UserAgent())
	}
	return t.base.RoundTrip(req)
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	if caFile == "" && !insecure {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}
	certPool, err := loadCertPool(caFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure,
		RootCAs:            certPool,
	}, nil
}

func loadCertPool(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	return pool, nil
}

// providerError turns an OAuth error response into an acquire.ProviderError
// and leaves every other error alone.
func providerError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		return &acquire.ProviderError{Code: re.ErrorCode, Description: re.ErrorDescription}
	}
	return err
}
