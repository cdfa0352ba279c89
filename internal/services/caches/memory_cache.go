package caches

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/pkg/errors"

	"scene-service/internal/services/cache"
)

var _ cache.CacheLayer = (*MemoryCache)(nil)

// MemoryCache keeps assets in process memory up to maxSize bytes, evicting
// the least recently used entry first. Entries older than ttl are dropped.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]*memoryCacheEntry
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	now         func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryCacheEntry struct {
	data        []byte
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
}

func NewMemoryCache(maxSizeBytes int64, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryCacheEntry),
		maxSize: maxSizeBytes,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (mc *MemoryCache) Name() string {
	return "memory"
}

func (mc *MemoryCache) Store(_ context.Context, key string, data []byte) error {
	size := int64(len(data))
	if size > mc.maxSize {
		return errors.Errorf("object of %d bytes exceeds memory cache size %d", size, mc.maxSize)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.removeLocked(key)
	for mc.currentSize+size > mc.maxSize {
		if !mc.evictLRULocked() {
			return errors.Errorf("unable to free space for object of size %d", size)
		}
	}

	now := mc.now()
	mc.entries[key] = &memoryCacheEntry{data: data, createdAt: now, lastAccess: now}
	mc.currentSize += size
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if ok && mc.expired(e) {
		mc.removeLocked(key)
		ok = false
	}
	if !ok {
		mc.misses.Add(1)
		return nil, cache.ErrMiss
	}

	e.lastAccess = mc.now()
	e.accessCount++
	mc.hits.Add(1)
	return e.data, nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.removeLocked(key)
	return nil
}

func (mc *MemoryCache) GetStats() cache.LayerStats {
	mc.mu.Lock()
	objects := len(mc.entries)
	size := mc.currentSize
	mc.mu.Unlock()

	hits := mc.hits.Load()
	misses := mc.misses.Load()
	return cache.LayerStats{
		Name:      mc.Name(),
		Objects:   objects,
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// Run drops expired entries every interval until ctx is done.
func (mc *MemoryCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mc.cleanupExpired(); n > 0 {
				logs.WithTag("expired", n).Debug("memory cache cleaned up")
			}
		}
	}
}

func (mc *MemoryCache) cleanupExpired() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	n := 0
	for key, e := range mc.entries {
		if mc.expired(e) {
			mc.removeLocked(key)
			n++
		}
	}
	return n
}

func (mc *MemoryCache) expired(e *memoryCacheEntry) bool {
	return mc.ttl > 0 && mc.now().Sub(e.createdAt) > mc.ttl
}

func (mc *MemoryCache) removeLocked(key string) {
	if e, ok := mc.entries[key]; ok {
		mc.currentSize -= int64(len(e.data))
		delete(mc.entries, key)
	}
}

func (mc *MemoryCache) evictLRULocked() bool {
	var oldestKey string
	var oldestTime time.Time

	for key, e := range mc.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccess
		}
	}
	if oldestKey == "" {
		return false
	}
	mc.removeLocked(oldestKey)
	return true
}
