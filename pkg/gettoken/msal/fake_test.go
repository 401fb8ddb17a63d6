package msal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"

	"github.com/owleyeart/bba/pkg/gettoken/config"
	"github.com/owleyeart/bba/pkg/gettoken/logging"
)

type fakePublic struct {
	accounts     []public.Account
	silentResult public.AuthResult
	silentErr    error
	authResult   public.AuthResult
	authErr      error
	// beforeAuthCode runs inside AcquireTokenByAuthCode, where the real
	// client talks to the token endpoint.
	beforeAuthCode func()
	authCode       string
	redirects      []string
	removed        []public.Account
	calls          []string
}

func (f *fakePublic) Accounts(context.Context) ([]public.Account, error) {
	f.calls = append(f.calls, "accounts")
	return f.accounts, nil
}

func (f *fakePublic) AcquireTokenSilent(_ context.Context, _ []string, _ ...public.AcquireSilentOption) (public.AuthResult, error) {
	f.calls = append(f.calls, "silent")
	return f.silentResult, f.silentErr
}

func (f *fakePublic) AuthCodeURL(_ context.Context, clientID, redirectURI string, scopes []string, _ ...public.AuthCodeURLOption) (string, error) {
	f.calls = append(f.calls, "auth-url")
	f.redirects = append(f.redirects, redirectURI)
	return "https://login.example/authorize?" + url.Values{
		"client_id":    {clientID},
		"redirect_uri": {redirectURI},
		"scope":        {strings.Join(scopes, " ")},
	}.Encode(), nil
}

func (f *fakePublic) AcquireTokenByAuthCode(_ context.Context, code string, redirectURI string, _ []string, _ ...public.AcquireByAuthCodeOption) (public.AuthResult, error) {
	f.calls = append(f.calls, "auth-code")
	f.authCode = code
	f.redirects = append(f.redirects, redirectURI)
	if f.beforeAuthCode != nil {
		f.beforeAuthCode()
	}
	return f.authResult, f.authErr
}

func (f *fakePublic) AcquireTokenByDeviceCode(context.Context, []string, ...public.AcquireByDeviceCodeOption) (public.DeviceCode, error) {
	f.calls = append(f.calls, "device-code")
	return public.DeviceCode{}, errors.New("device code not supported by fake")
}

func (f *fakePublic) RemoveAccount(_ context.Context, a public.Account) error {
	f.removed = append(f.removed, a)
	return nil
}

type fakeConfidential struct {
	silentErr error
	result    confidential.AuthResult
	err       error
	calls     []string
}

func (f *fakeConfidential) AcquireTokenSilent(context.Context, []string, ...confidential.AcquireSilentOption) (confidential.AuthResult, error) {
	f.calls = append(f.calls, "silent")
	if f.silentErr != nil {
		return confidential.AuthResult{}, f.silentErr
	}
	return f.result, nil
}

func (f *fakeConfidential) AcquireTokenByCredential(context.Context, []string, ...confidential.AcquireByCredentialOption) (confidential.AuthResult, error) {
	f.calls = append(f.calls, "credential")
	return f.result, f.err
}

func newFakeClient(app publicApp, conf confidentialApp) *Client {
	return &Client{
		cc: config.ClientConfig{
			Profile:     "default",
			ClientID:    "app",
			Authority:   "https://login.microsoftonline.com/contoso",
			RedirectURI: "http://127.0.0.1",
		},
		app:      app,
		conf:     conf,
		recorder: &errorRecorder{base: http.DefaultTransport},
		out:      &bytes.Buffer{},
		openURL:  func(string) error { return nil },
		log:      logging.NewTestLogger(),
	}
}

// redirectBack plays the browser: it returns straight to the redirect_uri
// of the authorization URL with the state and the given query values.
func redirectBack(extra url.Values) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		callback, err := url.Parse(q.Get("redirect_uri"))
		if err != nil {
			return err
		}
		values := url.Values{"state": {q.Get("state")}}
		for k, v := range extra {
			values[k] = v
		}
		callback.RawQuery = values.Encode()
		go func() {
			resp, err := http.Get(callback.String())
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}
