package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owleyeart/bba/pkg/gettoken/acquire"
)

func TestRoot_SilentSuccess(t *testing.T) {
	client := &stubClient{
		accounts: []acquire.Account{cachedAccount()},
		silent:   token("tok123"),
	}
	h := newHarness(t, client)

	require.NoError(t, h.run(clientFlags...))
	assert.Contains(t, h.stdout.String(), "✅")
	assert.Contains(t, h.stdout.String(), "silent")
	assert.NotContains(t, h.stdout.String(), "tok123")
	assert.Equal(t, []string{"accounts", "silent:home-1"}, client.calls)
	assert.Equal(t, "https://login.microsoftonline.com/contoso", h.seen.Authority)
}

func TestRoot_PrintToken(t *testing.T) {
	client := &stubClient{
		accounts: []acquire.Account{cachedAccount()},
		silent:   token("tok123"),
	}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("--print-token")...))
	assert.Contains(t, h.stdout.String(), "\ntok123\n")
}

func TestGet_InteractiveFailure(t *testing.T) {
	client := &stubClient{
		interactiveErr: &acquire.ProviderError{Code: "access_denied", Description: "user cancelled"},
	}
	h := newHarness(t, client)

	err := h.run(withClient("get")...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenAcquisition)
	out := h.stdout.String()
	assert.Contains(t, out, "❌")
	assert.Contains(t, out, "access_denied")
	assert.Contains(t, out, "user cancelled")
	assert.Equal(t, []string{"accounts", "interactive"}, client.calls)
}

func TestGet_SilentFailureFallsBack(t *testing.T) {
	client := &stubClient{
		accounts:    []acquire.Account{cachedAccount()},
		silentErr:   &acquire.ProviderError{Code: "invalid_grant"},
		interactive: token("fresh"),
	}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("get", "--print-token")...))
	assert.Contains(t, h.stdout.String(), "interactive")
	assert.Contains(t, h.stdout.String(), "fresh")
	assert.Equal(t, []string{"accounts", "silent:home-1", "interactive"}, client.calls)
}

func TestGet_IdempotentSilentRuns(t *testing.T) {
	client := &stubClient{
		accounts: []acquire.Account{cachedAccount()},
		silent:   token("tok123"),
	}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("get")...))
	require.NoError(t, h.run(withClient("get")...))
	assert.NotContains(t, client.calls, "interactive")
}

func TestGet_JSONOutput(t *testing.T) {
	client := &stubClient{
		accounts: []acquire.Account{cachedAccount()},
		silent:   token("tok123"),
	}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("get", "-o", "json", "--print-token")...))
	var view map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &view))
	assert.Equal(t, "success", view["status"])
	assert.Equal(t, "silent", view["source"])
	assert.Equal(t, "tok123", view["accessToken"])
}

func TestGet_ConfigErrorIsReported(t *testing.T) {
	h := newHarness(t, &stubClient{})

	err := h.run("get")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenAcquisition)
	assert.Contains(t, h.stdout.String(), "❌")
	assert.Contains(t, h.stdout.String(), "client-id is required")
}

func TestGet_ScopesAndBackendFlags(t *testing.T) {
	client := &stubClient{accounts: []acquire.Account{cachedAccount()}, silent: token("t")}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("get", "--scope", "api://x/.default", "--scope", "User.Read", "--backend", "oidc", "--authority", "https://idp.example.com")...))
	assert.Equal(t, []string{"api://x/.default", "User.Read"}, h.seen.Scopes)
	assert.Equal(t, "oidc", h.seen.Backend)
	assert.Equal(t, "https://idp.example.com", h.seen.Authority)
}

func TestGet_UnsupportedGrantForClient(t *testing.T) {
	h := newHarness(t, &stubClient{})

	err := h.run(withClient("get", "--grant-type", "device-code")...)
	require.Error(t, err)
	assert.Contains(t, h.stdout.String(), "does not support the device code grant")
}

func TestGet_InvalidOutputFormat(t *testing.T) {
	h := newHarness(t, &stubClient{})
	err := h.run(withClient("get", "-o", "xml")...)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenAcquisition)
}

func TestGet_VerboseLogsToStderr(t *testing.T) {
	client := &stubClient{accounts: []acquire.Account{cachedAccount()}, silent: token("tok123")}
	h := newHarness(t, client)

	require.NoError(t, h.run(withClient("get", "-v")...))
	assert.Contains(t, h.stderr.String(), "cid")
	assert.NotContains(t, h.stderr.String(), "tok123")
}
