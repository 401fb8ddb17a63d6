// Package auth is the generic OIDC identity client for gettoken. It
// supports the authorization code grant with PKCE and a loopback redirect,
// the device code grant and the client credentials grant, and keeps tokens
// in a cachestore.Store so later runs can reuse or refresh them silently.
package auth
