// Package acquire implements the token acquisition procedure: an ordered
// list of strategies (silent reuse of a cached account first, interactive
// login second) evaluated one at a time until one yields an access token.
//
// Identity providers plug in through IdentityClient and the optional
// DeviceCodeClient, CredentialClient and AccountRemover capabilities.
// Token caching, refresh and redirect handling are the identity client's
// business; the procedure never retries a strategy.
package acquire
