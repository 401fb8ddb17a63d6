package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
	"github.com/owleyeart/bba/pkg/gettoken/config"
)

// fakeProvider is a minimal OIDC provider. Token endpoint behaviour is
// switched per grant through the exported fields.
type fakeProvider struct {
	*httptest.Server

	mu          sync.Mutex
	grants      []string
	forms       []url.Values
	pendingLeft int
	tokenError  string
	idToken     string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"issuer":                        p.URL,
			"authorization_endpoint":        p.URL + "/authorize",
			"token_endpoint":                p.URL + "/token",
			"device_authorization_endpoint": p.URL + "/device",
		})
	})
	mux.HandleFunc("/device", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":      "dev-1",
			"user_code":        "ABCD-EFGH",
			"verification_uri": p.URL + "/verify",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		p.mu.Lock()
		defer p.mu.Unlock()
		grant := r.PostForm.Get("grant_type")
		p.grants = append(p.grants, grant)
		p.forms = append(p.forms, r.PostForm)
		if p.tokenError != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             p.tokenError,
				"error_description": "rejected by test provider",
			})
			return
		}
		if grant == "urn:ietf:params:oauth:grant-type:device_code" && p.pendingLeft > 0 {
			p.pendingLeft--
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "authorization_pending"})
			return
		}
		resp := map[string]any{
			"access_token":  "access-" + grant,
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		}
		if p.idToken != "" {
			resp["id_token"] = p.idToken
		}
		writeJSON(w, http.StatusOK, resp)
	})
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *fakeProvider) lastForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.forms) == 0 {
		return nil
	}
	return p.forms[len(p.forms)-1]
}

func (p *fakeProvider) tokenCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.grants...)
}

func (p *fakeProvider) clientConfig() config.ClientConfig {
	return config.ClientConfig{
		Profile:   "test",
		Backend:   config.BackendOIDC,
		ClientID:  "cli",
		Authority: p.URL,
		Scopes:    []string{"openid", "api"},
		GrantType: config.GrantAuthorizationCode,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFileStore(t *testing.T) *cachestore.FileStore {
	t.Helper()
	return &cachestore.FileStore{Path: filepath.Join(t.TempDir(), "cache.json")}
}

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

// browserRedirect plays the browser: it follows the authorization URL
// straight back to the loopback redirect with the given query values.
func browserRedirect(t *testing.T, extra url.Values) func(string) error {
	t.Helper()
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

// readOnlyStore serves what is already cached but refuses writes.
type readOnlyStore struct {
	*cachestore.FileStore
}

func (readOnlyStore) Save(string, []byte) error {
	return errors.New("keychain locked")
}
