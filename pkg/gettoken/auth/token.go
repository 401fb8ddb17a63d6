package auth

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
)

// refreshThreshold is how close to expiry a cached token is still handed out.
const refreshThreshold = 2 * time.Minute

// StoredToken is what the OIDC backend keeps per client in the cache store.
type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Username     string    `json:"username,omitempty"`
}

func storedTokenFrom(token *oauth2.Token, idToken string, scopes []string) StoredToken {
	stored := StoredToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		IDToken:      idToken,
		Scopes:       slices.Clone(scopes),
	}
	stored.Username = UsernameFromToken(idToken)
	if stored.Username == "" {
		stored.Username = UsernameFromToken(token.AccessToken)
	}
	return stored
}

// Expiring reports whether the token is within refreshThreshold of its
// expiry. A zero expiry never expires.
func (t StoredToken) Expiring(now time.Time) bool {
	return !t.Expiry.IsZero() && t.Expiry.Sub(now) <= refreshThreshold
}

// Covers reports whether the token was issued for every scope in scopes.
// Tokens stored without scope information cover everything.
func (t StoredToken) Covers(scopes []string) bool {
	if len(t.Scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if !slices.Contains(t.Scopes, s) {
			return false
		}
	}
	return true
}

// UsernameFromToken reads a display name from an unverified JWT. It
// returns "" for opaque tokens.
func UsernameFromToken(raw string) string {
	if raw == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	for _, key := range []string{"preferred_username", "email", "upn", "unique_name", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
