// Package settings caches per-guild settings in front of the document store.
package settings

import (
	"context"
	"errors"
	"sync"

	"github.com/pauljones0/syncbot/internal/logger"
	"github.com/pauljones0/syncbot/internal/store"
)

// Storer is the part of the store the cache reads from.
type Storer interface {
	GetGuildSettings(ctx context.Context, guildID string) (*store.GuildSettings, error)
}

// Cache provides an in-memory cache of guild settings. Entries are filled on
// first access and kept until invalidated or cleared.
type Cache struct {
	mu            sync.RWMutex
	items         map[string]*store.GuildSettings
	storer        Storer
	defaultPrefix string
}

func NewCache(storer Storer, defaultPrefix string) *Cache {
	return &Cache{
		items:         make(map[string]*store.GuildSettings),
		storer:        storer,
		defaultPrefix: defaultPrefix,
	}
}

// Get returns the settings of a guild. A guild without a stored document gets
// empty settings, which are cached like any other.
func (c *Cache) Get(ctx context.Context, guildID string) (*store.GuildSettings, error) {
	c.mu.RLock()
	item, ok := c.items[guildID]
	c.mu.RUnlock()
	if ok {
		return item, nil
	}

	// Cache miss. Concurrent misses may both read the store; they store the
	// same result.
	cfg, err := c.storer.GetGuildSettings(ctx, guildID)
	if errors.Is(err, store.ErrNotFound) {
		cfg, err = &store.GuildSettings{}, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[guildID] = cfg
	c.mu.Unlock()

	return cfg, nil
}

// Prefix returns the message prefix of a guild, falling back to the default
// for direct messages, unset prefixes and store failures.
func (c *Cache) Prefix(ctx context.Context, guildID string) string {
	if guildID == "" {
		return c.defaultPrefix
	}
	cfg, err := c.Get(ctx, guildID)
	if err != nil {
		logger.Warn(ctx, "Using default prefix", "guild_id", guildID, "error", err)
		return c.defaultPrefix
	}
	if cfg.Prefix == "" {
		return c.defaultPrefix
	}
	return cfg.Prefix
}

func (c *Cache) DefaultPrefix() string {
	return c.defaultPrefix
}

// Invalidate drops one guild so its next read goes to the store.
func (c *Cache) Invalidate(guildID string) {
	c.mu.Lock()
	delete(c.items, guildID)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*store.GuildSettings)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
