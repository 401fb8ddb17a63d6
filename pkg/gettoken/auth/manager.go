package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
)

type TokenManager struct {
	Store cachestore.Store
	// Now defaults to time.Now.
	Now func() time.Time
	Log *zap.SugaredLogger
}

func (m *TokenManager) GetToken(key string) (StoredToken, bool, error) {
	data, err := m.Store.Load(key)
	if err != nil {
		if errors.Is(err, cachestore.ErrNotFound) {
			return StoredToken{}, false, nil
		}
		return StoredToken{}, false, err
	}
	var token StoredToken
	if err := json.Unmarshal(data, &token); err != nil {
		return StoredToken{}, false, fmt.Errorf("failed to parse cached token: %w", err)
	}
	return token, true, nil
}

func (m *TokenManager) SaveToken(key string, token StoredToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return m.Store.Save(key, data)
}

func (m *TokenManager) DeleteToken(key string) error {
	return m.Store.Delete(key)
}

// RefreshIfNeeded returns the cached token, redeeming its refresh token
// first when it is about to expire. The bool reports whether a refresh
// happened.
func (m *TokenManager) RefreshIfNeeded(ctx context.Context, key string, oauthCfg oauth2.Config) (StoredToken, bool, error) {
	token, ok, err := m.GetToken(key)
	if err != nil || !ok {
		return token, false, err
	}
	if !token.Expiring(m.now()) {
		return token, false, nil
	}
	if token.RefreshToken == "" {
		return token, false, errors.New("token expired and no refresh token available")
	}
	src := oauthCfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		// Force the source to hit the token endpoint.
		Expiry: m.now().Add(-time.Second),
	})
	refreshed, err := src.Token()
	if err != nil {
		return token, false, fmt.Errorf("failed to refresh token: %w", providerError(err))
	}
	idToken, _ := refreshed.Extra("id_token").(string)
	if idToken == "" {
		idToken = token.IDToken
	}
	stored := storedTokenFrom(refreshed, idToken, token.Scopes)
	if stored.Username == "" {
		stored.Username = token.Username
	}
	if err := m.SaveToken(key, stored); err != nil {
		// The refreshed token is valid for this run even if it cannot be kept.
		m.log().Warnw("Failed to cache refreshed token", "key", key, "error", err)
	}
	return stored, true, nil
}

func (m *TokenManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *TokenManager) log() *zap.SugaredLogger {
	if m.Log != nil {
		return m.Log
	}
	return zap.NewNop().Sugar()
}
