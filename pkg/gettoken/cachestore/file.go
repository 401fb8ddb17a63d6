package cachestore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps every entry in a single JSON document at Path.
type FileStore struct {
	Path string
}

type fileCache struct {
	Entries map[string]string `json:"entries"`
}

func (s *FileStore) Load(key string) ([]byte, error) {
	cache, err := s.read()
	if err != nil {
		return nil, err
	}
	encoded, ok := cache.Entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Save(key string, data []byte) error {
	cache, err := s.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if cache == nil {
		cache = &fileCache{Entries: map[string]string{}}
	}
	cache.Entries[key] = base64.StdEncoding.EncodeToString(data)
	return s.write(cache)
}

func (s *FileStore) Delete(key string) error {
	cache, err := s.read()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if _, ok := cache.Entries[key]; !ok {
		return nil
	}
	delete(cache.Entries, key)
	return s.write(cache)
}

// read returns ErrNotFound when the file does not exist yet.
func (s *FileStore) read() (*fileCache, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var cache fileCache
	if err := json.Unmarshal(content, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Entries == nil {
		cache.Entries = map[string]string{}
	}
	return &cache, nil
}

func (s *FileStore) write(cache *fileCache) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	return os.WriteFile(s.Path, content, 0o600)
}
