// Package cachestore persists opaque credential blobs, such as serialized
// token caches, either in a JSON file or in the operating system keychain.
package cachestore
