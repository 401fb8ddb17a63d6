package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
	"github.com/owleyeart/bba/pkg/gettoken/config"
)

var (
	_ acquire.IdentityClient   = (*Client)(nil)
	_ acquire.DeviceCodeClient = (*Client)(nil)
	_ acquire.CredentialClient = (*Client)(nil)
	_ acquire.AccountRemover   = (*Client)(nil)
)

// Client is an acquire.IdentityClient for any OIDC provider. It remembers
// one account per cache key, which is the token last obtained for it.
type Client struct {
	cfg    OIDCConfig
	key    string
	tokens *TokenManager
	log    *zap.SugaredLogger
}

func NewClient(cc config.ClientConfig, store cachestore.Store, log *zap.SugaredLogger) (*Client, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		cfg:    OIDCConfigFrom(cc),
		key:    cc.CacheKey(),
		tokens: &TokenManager{Store: store, Log: log},
		log:    log,
	}, nil
}

// WithOIDCConfig lets callers adjust the flow settings, typically Out and
// OpenURL.
func (c *Client) WithOIDCConfig(fn func(*OIDCConfig)) *Client {
	fn(&c.cfg)
	return c
}

func (c *Client) Accounts(_ context.Context) ([]acquire.Account, error) {
	token, ok, err := c.tokens.GetToken(c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []acquire.Account{acquire.NewAccount(c.key, token.Username, c.cfg.Authority, c.key)}, nil
}

func (c *Client) AcquireSilent(ctx context.Context, scopes []string, account acquire.Account) (acquire.Result, error) {
	key, _ := account.Ref().(string)
	if key == "" {
		key = account.ID
	}
	token, ok, err := c.tokens.GetToken(key)
	if err != nil {
		return acquire.Result{}, err
	}
	if !ok {
		return acquire.Result{}, acquire.ErrNoCachedAccount
	}
	if !token.Covers(scopes) {
		return acquire.Result{}, fmt.Errorf("cached token does not cover scopes %v", scopes)
	}
	if token.Expiring(c.tokens.now()) {
		c.log.Debugw("Cached token expiring, refreshing", "key", key, "expiry", token.Expiry)
		oauthResult, err := BuildOAuthConfig(ctx, c.cfg, "")
		if err != nil {
			return acquire.Result{}, err
		}
		refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, oauthResult.Client)
		token, _, err = c.tokens.RefreshIfNeeded(refreshCtx, key, oauthResult.OAuthConfig)
		if err != nil {
			return acquire.Result{}, err
		}
	}
	return c.result(key, token), nil
}

func (c *Client) AcquireInteractive(ctx context.Context, scopes []string) (acquire.Result, error) {
	res, err := Login(ctx, c.withScopes(scopes))
	if err != nil {
		return acquire.Result{}, err
	}
	return c.store(res, scopes)
}

func (c *Client) AcquireByDeviceCode(ctx context.Context, scopes []string, prompt func(string)) (acquire.Result, error) {
	res, err := DeviceCodeLogin(ctx, c.withScopes(scopes), prompt)
	if err != nil {
		return acquire.Result{}, err
	}
	return c.store(res, scopes)
}

// AcquireByCredential returns the cached application token while it is
// fresh and requests a new one otherwise.
func (c *Client) AcquireByCredential(ctx context.Context, scopes []string) (acquire.Result, error) {
	if token, ok, err := c.tokens.GetToken(c.key); err == nil && ok && token.Covers(scopes) && !token.Expiring(c.tokens.now()) {
		return c.result(c.key, token), nil
	}
	res, err := ClientCredentialsLogin(ctx, c.withScopes(scopes))
	if err != nil {
		return acquire.Result{}, err
	}
	return c.store(res, scopes)
}

func (c *Client) RemoveAccount(_ context.Context, account acquire.Account) error {
	key, _ := account.Ref().(string)
	if key == "" {
		key = account.ID
	}
	return c.tokens.DeleteToken(key)
}

func (c *Client) withScopes(scopes []string) OIDCConfig {
	cfg := c.cfg
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return cfg
}

func (c *Client) store(res *LoginResult, scopes []string) (acquire.Result, error) {
	stored := storedTokenFrom(res.Token, res.IDToken, scopes)
	if err := c.tokens.SaveToken(c.key, stored); err != nil {
		// The token is still good for this run.
		c.log.Warnw("Failed to cache token", "error", err)
	}
	return c.result(c.key, stored), nil
}

func (c *Client) result(key string, token StoredToken) acquire.Result {
	return acquire.Result{
		AccessToken: token.AccessToken,
		IDToken:     token.IDToken,
		TokenType:   token.TokenType,
		ExpiresOn:   token.Expiry,
		Scopes:      slices.Clone(token.Scopes),
		Account:     acquire.NewAccount(key, token.Username, c.cfg.Authority, key),
	}
}
