package cachestore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ModeFile     = "file"
	ModeKeychain = "keychain"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("no cached credentials")

type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// New returns the store for mode. An empty mode selects the file store at path.
func New(mode, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeFile:
		if path == "" {
			return nil, errors.New("cache path is required for file storage")
		}
		return &FileStore{Path: path}, nil
	case ModeKeychain:
		return &KeychainStore{Service: DefaultKeychainService}, nil
	default:
		return nil, fmt.Errorf("unsupported token storage: %s", mode)
	}
}
