package cachestore

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const DefaultKeychainService = "gettoken"

// KeychainStore keeps each entry as a keychain secret named Service/key.
// Entries are base64 encoded since some keychains reject binary secrets.
type KeychainStore struct {
	Service string
}

func (s *KeychainStore) Load(key string) ([]byte, error) {
	secret, err := keyring.Get(s.service(), key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read keychain entry: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode keychain entry %s: %w", key, err)
	}
	return data, nil
}

func (s *KeychainStore) Save(key string, data []byte) error {
	if err := keyring.Set(s.service(), key, base64.StdEncoding.EncodeToString(data)); err != nil {
		return fmt.Errorf("failed to write keychain entry: %w", err)
	}
	return nil
}

func (s *KeychainStore) Delete(key string) error {
	if err := keyring.Delete(s.service(), key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keychain entry: %w", err)
	}
	return nil
}

func (s *KeychainStore) service() string {
	if s.Service == "" {
		return DefaultKeychainService
	}
	return s.Service
}
