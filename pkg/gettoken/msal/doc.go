// Package msal adapts the Microsoft Authentication Library public and
// confidential clients to the acquire interfaces. The MSAL token cache is
// persisted through a cachestore.Store so accounts survive between runs.
package msal
