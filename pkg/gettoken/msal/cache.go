package msal

import (
	"context"
	"errors"
	"fmt"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"go.uber.org/zap"

	"github.com/owleyeart/bba/pkg/gettoken/cachestore"
)

var _ cache.ExportReplace = (*PersistentCache)(nil)

// PersistentCache stores the serialized MSAL cache under Key.
type PersistentCache struct {
	Store cachestore.Store
	Key   string
	Log   *zap.SugaredLogger
}

// Replace loads the stored cache into MSAL. A missing or unreadable entry
// leaves MSAL with an empty cache.
func (c *PersistentCache) Replace(_ context.Context, u cache.Unmarshaler, _ cache.ReplaceHints) error {
	data, err := c.Store.Load(c.Key)
	if err != nil {
		if errors.Is(err, cachestore.ErrNotFound) {
			return nil
		}
		c.logger().Warnw("Ignoring unreadable token cache", "key", c.Key, "error", err)
		return nil
	}
	if err := u.Unmarshal(data); err != nil {
		c.logger().Warnw("Ignoring corrupt token cache", "key", c.Key, "error", err)
	}
	return nil
}

func (c *PersistentCache) Export(_ context.Context, m cache.Marshaler, _ cache.ExportHints) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize token cache: %w", err)
	}
	if err := c.Store.Save(c.Key, data); err != nil {
		return fmt.Errorf("failed to persist token cache: %w", err)
	}
	return nil
}

func (c *PersistentCache) logger() *zap.SugaredLogger {
	if c.Log == nil {
		return zap.NewNop().Sugar()
	}
	return c.Log
}
