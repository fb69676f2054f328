package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Cache stores resolved coordinates by location key.
type Cache interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool, error)
	Set(ctx context.Context, key string, coords models.Coordinates) error
}

func CacheKey(city, country string) string {
	return strings.ToLower(strings.TrimSpace(city)) + ":" + strings.ToUpper(strings.TrimSpace(country))
}

type cacheItem struct {
	coords    models.Coordinates
	expiresAt time.Time
}

// MemoryCache is a bounded TTL cache living for the lifetime of the process.
type MemoryCache struct {
	mu              sync.RWMutex
	items           map[string]cacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

func NewMemoryCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := &MemoryCache{
		items:           make(map[string]cacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func (c *MemoryCache) Get(_ context.Context, key string) (models.Coordinates, bool, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return models.Coordinates{}, false, nil
	}

	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return models.Coordinates{}, false, nil
	}

	return item.coords, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, coords models.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict if cache is too large
	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	c.items[key] = cacheItem{
		coords:    coords,
		expiresAt: time.Now().Add(c.defaultDuration),
	}

	c.logger.Debug("Coordinates cached",
		zap.String("key", key),
		zap.Time("expires_at", time.Now().Add(c.defaultDuration)))
	return nil
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest coordinates from cache", zap.String("key", oldestKey))
	}
}

func (c *MemoryCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items", zap.Int("count", expiredCount))
	}
}

func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RedisCache shares resolved coordinates between collector instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "weather:geocode:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var coords models.Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("decode cached coordinates: %w", err)
	}
	return coords, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, coords models.Coordinates) error {
	raw, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// CachingGeocoder answers from the cache when it can and only caches responses that parse.
type CachingGeocoder struct {
	next   Geocoder
	cache  Cache
	logger *zap.Logger
}

func NewCachingGeocoder(next Geocoder, cache Cache, logger *zap.Logger) *CachingGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingGeocoder{next: next, cache: cache, logger: logger}
}

func (g *CachingGeocoder) Geocode(ctx context.Context, city, country string) ([]byte, error) {
	key := CacheKey(city, country)

	coords, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("Geocode cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		g.logger.Debug("Cache hit for coordinates", zap.String("city", city))
		return json.Marshal(coords)
	}

	body, err := g.next.Geocode(ctx, city, country)
	if err != nil {
		return nil, err
	}

	if result, perr := Parse(body); perr == nil {
		if err := g.cache.Set(ctx, key, result.Coordinates); err != nil {
			g.logger.Warn("Geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}
