package msal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/auth"
	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
	"github.com/owleyeart/bba/pkg/gettoken/config"
)

var (
	_ acquire.IdentityClient   = (*Client)(nil)
	_ acquire.DeviceCodeClient = (*Client)(nil)
	_ acquire.CredentialClient = (*Client)(nil)
	_ acquire.AccountRemover   = (*Client)(nil)
)

// publicApp is the part of public.Client this package uses.
type publicApp interface {
	Accounts(ctx context.Context) ([]public.Account, error)
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...public.AcquireSilentOption) (public.AuthResult, error)
	AuthCodeURL(ctx context.Context, clientID, redirectURI string, scopes []string, opts ...public.AuthCodeURLOption) (string, error)
	AcquireTokenByAuthCode(ctx context.Context, code string, redirectURI string, scopes []string, opts ...public.AcquireByAuthCodeOption) (public.AuthResult, error)
	AcquireTokenByDeviceCode(ctx context.Context, scopes []string, opts ...public.AcquireByDeviceCodeOption) (public.DeviceCode, error)
	RemoveAccount(ctx context.Context, account public.Account) error
}

type confidentialApp interface {
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...confidential.AcquireSilentOption) (confidential.AuthResult, error)
	AcquireTokenByCredential(ctx context.Context, scopes []string, opts ...confidential.AcquireByCredentialOption) (confidential.AuthResult, error)
}

type Client struct {
	cc       config.ClientConfig
	app      publicApp
	conf     confidentialApp
	recorder *errorRecorder
	out      io.Writer
	openURL  func(string) error
	log      *zap.SugaredLogger
}

type Option func(*Client)

// WithOutput sets where the login URL is printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Client) {
		c.out = w
	}
}

// WithOpenURL replaces the system browser.
func WithOpenURL(fn func(string) error) Option {
	return func(c *Client) {
		c.openURL = fn
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds the MSAL public client for cc and, when a client secret
// is configured, the confidential client too. Both share one persisted
// cache entry.
func NewClient(cc config.ClientConfig, store cachestore.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	c := &Client{
		cc:  cc,
		out: os.Stdout,
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient, err := auth.NewHTTPClient(cc.CAFile, cc.InsecureSkipTLS)
	if err != nil {
		return nil, err
	}
	c.recorder = &errorRecorder{base: httpClient.Transport}
	httpClient.Transport = c.recorder

	persistent := &PersistentCache{Store: store, Key: cc.CacheKey(), Log: c.log}
	app, err := public.New(cc.ClientID,
		public.WithAuthority(cc.Authority),
		public.WithCache(persistent),
		public.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MSAL public client: %w", err)
	}
	c.app = app

	if cc.Confidential() {
		cred, err := confidential.NewCredFromSecret(cc.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid client secret: %w", err)
		}
		conf, err := confidential.New(cc.Authority, cc.ClientID, cred,
			confidential.WithCache(&PersistentCache{Store: store, Key: cc.CacheKey() + "/app", Log: c.log}),
			confidential.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create MSAL confidential client: %w", err)
		}
		c.conf = conf
	}
	return c, nil
}

func (c *Client) Accounts(ctx context.Context) ([]acquire.Account, error) {
	accounts, err := c.app.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]acquire.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccount(a))
	}
	return out, nil
}

func (c *Client) AcquireSilent(ctx context.Context, scopes []string, account acquire.Account) (acquire.Result, error) {
	native, ok := account.Ref().(public.Account)
	if !ok {
		return acquire.Result{}, fmt.Errorf("account %q was not issued by this client", account.ID)
	}
	c.recorder.reset()
	res, err := c.app.AcquireTokenSilent(ctx, scopes, public.WithSilentAccount(native))
	if err != nil {
		return acquire.Result{}, c.recorder.translate(err)
	}
	return toResult(res), nil
}

// AcquireInteractive signs the user in through the browser. The loopback
// callback is served here rather than by MSAL so that an error redirect
// keeps its OAuth error code.
func (c *Client) AcquireInteractive(ctx context.Context, scopes []string) (acquire.Result, error) {
	redirect := c.cc.RedirectURI
	if redirect == "" {
		redirect = config.DefaultRedirectURI
	}
	code, err := auth.AuthorizeLoopback(ctx, auth.AuthCodeRequest{
		RedirectURL: redirect,
		AuthURL: func(ctx context.Context, redirectURL string) (string, error) {
			var opts []public.AuthCodeURLOption
			if c.cc.LoginHint != "" {
				opts = append(opts, public.WithLoginHint(c.cc.LoginHint))
			}
			return c.app.AuthCodeURL(ctx, c.cc.ClientID, redirectURL, scopes, opts...)
		},
		OpenURL: c.openURL,
		Out:     c.out,
	})
	if err != nil {
		return acquire.Result{}, err
	}
	c.recorder.reset()
	res, err := c.app.AcquireTokenByAuthCode(ctx, code.Code, code.RedirectURL, scopes, public.WithChallenge(code.Verifier))
	if err != nil {
		return acquire.Result{}, c.recorder.translate(err)
	}
	return toResult(res), nil
}

func (c *Client) AcquireByDeviceCode(ctx context.Context, scopes []string, prompt func(string)) (acquire.Result, error) {
	c.recorder.reset()
	dc, err := c.app.AcquireTokenByDeviceCode(ctx, scopes)
	if err != nil {
		return acquire.Result{}, c.recorder.translate(err)
	}
	prompt(dc.Result.Message)
	res, err := dc.AuthenticationResult(ctx)
	if err != nil {
		return acquire.Result{}, c.recorder.translate(err)
	}
	return toResult(res), nil
}

// AcquireByCredential returns a cached application token when MSAL has
// one and runs the client credentials grant otherwise.
func (c *Client) AcquireByCredential(ctx context.Context, scopes []string) (acquire.Result, error) {
	if c.conf == nil {
		return acquire.Result{}, errors.New("client secret is not configured")
	}
	if res, err := c.conf.AcquireTokenSilent(ctx, scopes); err == nil {
		return toResult(res), nil
	}
	c.recorder.reset()
	res, err := c.conf.AcquireTokenByCredential(ctx, scopes)
	if err != nil {
		return acquire.Result{}, c.recorder.translate(err)
	}
	return toResult(res), nil
}

func (c *Client) RemoveAccount(ctx context.Context, account acquire.Account) error {
	native, ok := account.Ref().(public.Account)
	if !ok {
		return fmt.Errorf("account %q was not issued by this client", account.ID)
	}
	return c.app.RemoveAccount(ctx, native)
}

func toAccount(a public.Account) acquire.Account {
	return acquire.NewAccount(a.HomeAccountID, a.PreferredUsername, a.Environment, a)
}

func toResult(res public.AuthResult) acquire.Result {
	return acquire.Result{
		AccessToken: res.AccessToken,
		IDToken:     res.IDToken.RawToken,
		TokenType:   "Bearer",
		ExpiresOn:   res.ExpiresOn,
		Scopes:      res.GrantedScopes,
		Account:     toAccount(res.Account),
	}
}
