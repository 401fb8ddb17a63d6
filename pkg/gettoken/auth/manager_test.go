/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenManager_SaveGetDelete(t *testing.T) {
	mgr := &TokenManager{Store: newFileStore(t)}

	_, found, err := mgr.GetToken("p/one")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mgr.SaveToken("p/one", StoredToken{AccessToken: "token1", Scopes: []string{"api"}}))
	require.NoError(t, mgr.SaveToken("p/two", StoredToken{AccessToken: "token2"}))

	t1, found, err := mgr.GetToken("p/one")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token1", t1.AccessToken)
	assert.Equal(t, []string{"api"}, t1.Scopes)

	require.NoError(t, mgr.DeleteToken("p/one"))
	_, found, err = mgr.GetToken("p/one")
	require.NoError(t, err)
	assert.False(t, found)

	t2, found, err := mgr.GetToken("p/two")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token2", t2.AccessToken)
}

func TestTokenManager_RefreshIfNeeded_TokenNotExpiring(t *testing.T) {
	mgr := &TokenManager{Store: newFileStore(t)}
	require.NoError(t, mgr.SaveToken("k", StoredToken{
		AccessToken:  "valid-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}))

	token, refreshed, err := mgr.RefreshIfNeeded(context.Background(), "k", oauth2.Config{})
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, "valid-token", token.AccessToken)
}

func TestTokenManager_RefreshIfNeeded_NoRefreshToken(t *testing.T) {
	mgr := &TokenManager{Store: newFileStore(t)}
	require.NoError(t, mgr.SaveToken("k", StoredToken{
		AccessToken: "expired-token",
		Expiry:      time.Now().Add(time.Second),
	}))

	_, _, err := mgr.RefreshIfNeeded(context.Background(), "k", oauth2.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}

func TestTokenManager_RefreshIfNeeded_Refreshes(t *testing.T) {
	p := newFakeProvider(t)
	mgr := &TokenManager{Store: newFileStore(t)}
	require.NoError(t, mgr.SaveToken("k", StoredToken{
		AccessToken:  "old",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(30 * time.Second),
		Scopes:       []string{"api"},
		Username:     "alice",
	}))

	cfg := oauth2.Config{ClientID: "cli", Endpoint: oauth2.Endpoint{TokenURL: p.URL + "/token"}}
	token, refreshed, err := mgr.RefreshIfNeeded(context.Background(), "k", cfg)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "access-refresh_token", token.AccessToken)
	assert.Equal(t, "alice", token.Username)
	assert.Equal(t, []string{"api"}, token.Scopes)
	assert.Equal(t, "refresh-0", p.lastForm().Get("refresh_token"))

	stored, _, err := mgr.GetToken("k")
	require.NoError(t, err)
	assert.Equal(t, "access-refresh_token", stored.AccessToken)
}

func TestTokenManager_RefreshIfNeeded_TokenNotFound(t *testing.T) {
	mgr := &TokenManager{Store: newFileStore(t)}
	_, found, err := mgr.RefreshIfNeeded(context.Background(), "nonexistent", oauth2.Config{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTokenManager_RefreshIfNeeded_KeepsTokenWhenSaveFails(t *testing.T) {
	p := newFakeProvider(t)
	files := newFileStore(t)
	require.NoError(t, (&TokenManager{Store: files}).SaveToken("k", StoredToken{
		AccessToken:  "old",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(30 * time.Second),
	}))

	mgr := &TokenManager{Store: readOnlyStore{files}}
	cfg := oauth2.Config{ClientID: "cli", Endpoint: oauth2.Endpoint{TokenURL: p.URL + "/token"}}
	token, refreshed, err := mgr.RefreshIfNeeded(context.Background(), "k", cfg)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "access-refresh_token", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
}
