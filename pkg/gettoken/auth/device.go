package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
	"github.com/owleyeart/bba/pkg/version"
)

type oidcDiscovery struct {
	TokenEndpoint               string `json:"token_endpoint"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
}

type deviceCodeResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	Message                 string `json:"message"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

var (
	errAuthorizationPending = errors.New("authorization pending")
	errSlowDown             = errors.New("slow down")
)

// DeviceCodeLogin runs the device authorization grant. prompt receives the
// instructions for the user; nil prints them to cfg.Out.
func DeviceCodeLogin(ctx context.Context, cfg OIDCConfig, prompt func(string)) (*LoginResult, error) {
	if cfg.Authority == "" || cfg.ClientID == "" {
		return nil, errors.New("authority and client-id are required")
	}
	httpClient, err := NewHTTPClient(cfg.CAFile, cfg.InsecureSkipTLS)
	if err != nil {
		return nil, err
	}
	rc := newRestClient(httpClient)

	endpoints, err := discoverOIDCEndpoints(ctx, rc, cfg.Authority)
	if err != nil {
		return nil, err
	}
	if endpoints.DeviceAuthorizationEndpoint == "" {
		return nil, errors.New("device authorization endpoint not advertised")
	}
	if endpoints.TokenEndpoint == "" {
		return nil, errors.New("token endpoint not advertised")
	}

	deviceResp, err := requestDeviceCode(ctx, rc, endpoints.DeviceAuthorizationEndpoint, cfg)
	if err != nil {
		return nil, err
	}

	message := deviceResp.Message
	if message == "" {
		message = fmt.Sprintf("Visit %s and enter code: %s", deviceResp.VerificationURI, deviceResp.UserCode)
	}
	if prompt != nil {
		prompt(message)
	} else {
		_, _ = fmt.Fprintln(cfg.out(), message)
	}
	verificationURL := deviceResp.VerificationURIComplete
	if verificationURL == "" {
		verificationURL = deviceResp.VerificationURI
	}
	if verificationURL != "" {
		_ = cfg.openURL(verificationURL)
	}

	interval := time.Duration(deviceResp.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(deviceResp.ExpiresIn) * time.Second)

	for {
		if time.Now().After(deadline) {
			return nil, &acquire.ProviderError{Code: "expired_token", Description: "device code expired"}
		}
		tokenResp, err := pollDeviceToken(ctx, rc, endpoints.TokenEndpoint, cfg, deviceResp.DeviceCode)
		if err != nil {
			switch {
			case errors.Is(err, errAuthorizationPending):
			case errors.Is(err, errSlowDown):
				interval += 5 * time.Second
			default:
				return nil, err
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
			continue
		}
		token := &oauth2.Token{
			AccessToken:  tokenResp.AccessToken,
			RefreshToken: tokenResp.RefreshToken,
			TokenType:    tokenResp.TokenType,
			Expiry:       time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		}
		if tokenResp.Scope != "" {
			token = token.WithExtra(map[string]any{"scope": tokenResp.Scope})
		}
		return &LoginResult{Token: token, IDToken: tokenResp.IDToken}, nil
	}
}

func newRestClient(httpClient *http.Client) *resty.Client {
	return resty.NewWithClient(httpClient).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", "application/json")
}

func discoverOIDCEndpoints(ctx context.Context, rc *resty.Client, authority string) (*oidcDiscovery, error) {
	endpoint := strings.TrimRight(authority, "/") + "/.well-known/openid-configuration"
	resp, err := rc.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("discovery failed: %s", resp.String())
	}
	var discovery oidcDiscovery
	if err := json.Unmarshal(resp.Body(), &discovery); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	return &discovery, nil
}

func requestDeviceCode(ctx context.Context, rc *resty.Client, endpoint string, cfg OIDCConfig) (*deviceCodeResponse, error) {
	form := map[string]string{"client_id": cfg.ClientID}
	if len(cfg.Scopes) > 0 {
		form["scope"] = strings.Join(cfg.Scopes, " ")
	}
	resp, err := rc.R().SetContext(ctx).SetFormData(form).Post(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		var payload tokenResponse
		if json.Unmarshal(resp.Body(), &payload) == nil && payload.Error != "" {
			return nil, &acquire.ProviderError{Code: payload.Error, Description: payload.ErrorDesc}
		}
		return nil, fmt.Errorf("device authorization failed: %s", resp.String())
	}
	var payload deviceCodeResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse device authorization response: %w", err)
	}
	return &payload, nil
}

func pollDeviceToken(ctx context.Context, rc *resty.Client, endpoint string, cfg OIDCConfig, deviceCode string) (*tokenResponse, error) {
	form := map[string]string{
		"grant_type":  "urn:ietf:params:oauth:grant-type:device_code",
		"device_code": deviceCode,
		"client_id":   cfg.ClientID,
	}
	if cfg.ClientSecret != "" {
		form["client_secret"] = cfg.ClientSecret
	}
	resp, err := rc.R().SetContext(ctx).SetFormData(form).Post(endpoint)
	if err != nil {
		return nil, err
	}
	var payload tokenResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	switch payload.Error {
	case "":
	case "authorization_pending":
		return nil, errAuthorizationPending
	case "slow_down":
		return nil, errSlowDown
	default:
		return nil, &acquire.ProviderError{Code: payload.Error, Description: payload.ErrorDesc}
	}
	if payload.AccessToken == "" {
		return nil, errors.New("token response did not include an access token")
	}
	return &payload, nil
}
