package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/settings"
)

// InMemorySettingsCache implements settings.Cache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemorySettingsCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewInMemorySettingsCache creates a new in-memory settings cache
func NewInMemorySettingsCache() *InMemorySettingsCache {
	return &InMemorySettingsCache{
		entries: make(map[string]string),
	}
}

// Get returns the cached value and whether it was present
func (c *InMemorySettingsCache) Get(_ context.Context, storeID uuid.UUID, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[settingsCacheKey(storeID, key)]
	return value, ok, nil
}

// Set stores a value for a store-scoped key
func (c *InMemorySettingsCache) Set(_ context.Context, storeID uuid.UUID, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[settingsCacheKey(storeID, key)] = value
	return nil
}

// Delete removes a store-scoped key
func (c *InMemorySettingsCache) Delete(_ context.Context, storeID uuid.UUID, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, settingsCacheKey(storeID, key))
	return nil
}

// Ensure InMemorySettingsCache implements settings.Cache
var _ settings.Cache = (*InMemorySettingsCache)(nil)
