// internal/repository/blacklist_cache.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"clickguard/internal/metrics"
	"clickguard/internal/models"
	"clickguard/internal/service"
	"clickguard/pkg/redis"
)

var _ service.SignalStore = (*BlacklistCache)(nil)

// negativeMarker records in Redis that no entry exists
const negativeMarker = "none"

// KeyValueCache is the shared cache layer, normally Redis
type KeyValueCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// BlacklistCache answers blacklist lookups from memory, then Redis, then the
// wrapped store. Misses are cached too, since nearly every visitor is clean.
// Expiry is still evaluated by the caller on every read.
type BlacklistCache struct {
	service.SignalStore
	redis    KeyValueCache
	memCache *memoryCache
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewBlacklistCache wraps next. memTTL bounds how long this instance can miss
// a ban written by another one.
func NewBlacklistCache(next service.SignalStore, kv KeyValueCache, ttl, memTTL time.Duration, m *metrics.Metrics, logger *zap.Logger) *BlacklistCache {
	return &BlacklistCache{
		SignalStore: next,
		redis:       kv,
		memCache:    newMemoryCache(memTTL),
		ttl:         ttl,
		metrics:     m,
		logger:      logger,
	}
}

func (c *BlacklistCache) FindBlacklistByFingerprint(ctx context.Context, fingerprint string) (*models.BlacklistEntry, error) {
	return c.lookup(ctx, fingerprintKey(fingerprint), func() (*models.BlacklistEntry, error) {
		return c.SignalStore.FindBlacklistByFingerprint(ctx, fingerprint)
	})
}

func (c *BlacklistCache) FindBlacklistByIP(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	return c.lookup(ctx, ipKey(ip), func() (*models.BlacklistEntry, error) {
		return c.SignalStore.FindBlacklistByIP(ctx, ip)
	})
}

// UpsertBlacklist writes through and drops the cached answers for the
// entry's fingerprint, its new IP and the IP previously on file
func (c *BlacklistCache) UpsertBlacklist(ctx context.Context, entry *models.BlacklistEntry) error {
	prior, err := c.SignalStore.FindBlacklistByFingerprint(ctx, entry.Fingerprint)
	if err != nil {
		c.logger.Warn("failed to read blacklist entry before upsert",
			zap.Error(err), zap.String("fingerprint", entry.Fingerprint))
		prior = nil
	}

	if err := c.SignalStore.UpsertBlacklist(ctx, entry); err != nil {
		return err
	}

	keys := []string{fingerprintKey(entry.Fingerprint)}
	if entry.IPAddress != "" {
		keys = append(keys, ipKey(entry.IPAddress))
	}
	if prior != nil && prior.IPAddress != "" && prior.IPAddress != entry.IPAddress {
		keys = append(keys, ipKey(prior.IPAddress))
	}

	for _, key := range keys {
		c.memCache.Delete(key)
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Warn("failed to invalidate blacklist cache", zap.Error(err), zap.Strings("keys", keys))
	}
	return nil
}

// StartCleanup evicts stale memory entries until ctx is done
func (c *BlacklistCache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.memCache.cleanup()
			}
		}
	}()
}

func (c *BlacklistCache) lookup(ctx context.Context, key string, load func() (*models.BlacklistEntry, error)) (*models.BlacklistEntry, error) {
	if entry, ok := c.memCache.Get(key); ok {
		c.metrics.CacheLookup("blacklist", "memory", "hit")
		return entry, nil
	}

	entry, err := c.getRedis(ctx, key)
	if err == nil {
		c.metrics.CacheLookup("blacklist", "redis", "hit")
		c.memCache.Set(key, entry)
		return entry, nil
	}
	if !errors.Is(err, redis.ErrKeyNotFound) {
		c.logger.Debug("blacklist cache read failed", zap.Error(err), zap.String("key", key))
	}
	c.metrics.CacheLookup("blacklist", "redis", "miss")

	entry, err = load()
	if err != nil {
		return nil, err
	}

	c.memCache.Set(key, entry)
	c.setRedis(ctx, key, entry)
	return entry, nil
}

func (c *BlacklistCache) getRedis(ctx context.Context, key string) (*models.BlacklistEntry, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == negativeMarker {
		return nil, nil
	}

	var entry models.BlacklistEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("corrupt blacklist cache entry: %w", err)
	}
	return &entry, nil
}

func (c *BlacklistCache) setRedis(ctx context.Context, key string, entry *models.BlacklistEntry) {
	var value interface{} = negativeMarker
	if entry != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		value = data
	}

	if err := c.redis.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("failed to cache blacklist lookup", zap.Error(err), zap.String("key", key))
	}
}

func fingerprintKey(fingerprint string) string {
	return "blacklist:fp:" + fingerprint
}

func ipKey(ip string) string {
	return "blacklist:ip:" + ip
}

// memoryCache is the per-instance layer in front of Redis. A cached nil
// entry is a valid answer.
type memoryCache struct {
	mu     sync.RWMutex
	data   map[string]cacheEntry
	maxAge time.Duration
	now    func() time.Time
}

type cacheEntry struct {
	entry    *models.BlacklistEntry
	cachedAt time.Time
}

func newMemoryCache(maxAge time.Duration) *memoryCache {
	return &memoryCache{
		data:   make(map[string]cacheEntry),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (mc *memoryCache) Get(key string) (*models.BlacklistEntry, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	cached, ok := mc.data[key]
	if !ok || mc.now().Sub(cached.cachedAt) > mc.maxAge {
		return nil, false
	}
	return cached.entry, true
}

func (mc *memoryCache) Set(key string, entry *models.BlacklistEntry) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.data[key] = cacheEntry{entry: entry, cachedAt: mc.now()}
}

func (mc *memoryCache) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.data, key)
}

func (mc *memoryCache) cleanup() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	removed := 0
	now := mc.now()
	for key, cached := range mc.data {
		if now.Sub(cached.cachedAt) > mc.maxAge {
			delete(mc.data, key)
			removed++
		}
	}
	return removed
}
