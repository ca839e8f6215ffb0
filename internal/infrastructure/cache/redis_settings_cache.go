package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// RedisSettingsCache implements settings.Cache using Redis
type RedisSettingsCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// RedisSettingsCacheOption is a functional option for configuring the cache
type RedisSettingsCacheOption func(*RedisSettingsCache)

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		c.logger = logger
	}
}

// NewRedisSettingsCache creates a new Redis-based settings cache
func NewRedisSettingsCache(cfg config.RedisConfig, opts ...RedisSettingsCacheOption) (*RedisSettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisSettingsCache{
		client:     client,
		ownsClient: true,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisSettingsCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisSettingsCacheWithClient(client *redis.Client, opts ...RedisSettingsCacheOption) *RedisSettingsCache {
	cache := &RedisSettingsCache{
		client:     client,
		ownsClient: false,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get returns the cached value and whether it was present
func (c *RedisSettingsCache) Get(ctx context.Context, storeID uuid.UUID, key string) (string, bool, error) {
	cacheKey := settingsCacheKey(storeID, key)

	value, err := c.client.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.logger.Debug("Cache miss for setting",
			zap.String("store_id", storeID.String()),
			zap.String("key", key))
		return "", false, nil
	}
	if err != nil {
		c.logger.Error("Failed to get setting from cache",
			zap.String("store_id", storeID.String()),
			zap.String("key", key),
			zap.Error(err))
		return "", false, fmt.Errorf("failed to get setting from cache: %w", err)
	}

	return value, true, nil
}

// Set stores a value for a store-scoped key. Entries never expire; the
// settings service writes through on every update.
func (c *RedisSettingsCache) Set(ctx context.Context, storeID uuid.UUID, key, value string) error {
	cacheKey := settingsCacheKey(storeID, key)

	if err := c.client.Set(ctx, cacheKey, value, 0).Err(); err != nil {
		c.logger.Error("Failed to set setting in cache",
			zap.String("store_id", storeID.String()),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to set setting in cache: %w", err)
	}

	return nil
}

// Delete removes a store-scoped key
func (c *RedisSettingsCache) Delete(ctx context.Context, storeID uuid.UUID, key string) error {
	cacheKey := settingsCacheKey(storeID, key)

	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Error("Failed to delete setting from cache",
			zap.String("store_id", storeID.String()),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to delete setting from cache: %w", err)
	}

	return nil
}

// Close releases the Redis client when this cache owns it
func (c *RedisSettingsCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisSettingsCache implements settings.Cache
var _ settings.Cache = (*RedisSettingsCache)(nil)
