package caches

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"scene-service/internal/services/cache"
)

const redisAssetPrefix = "scene:asset:"

var _ cache.CacheLayer = (*RedisCache)(nil)

// BytesStore is the subset of storage.RedisClient the cache relies on.
type BytesStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache shares downloaded assets between service instances.
type RedisCache struct {
	client BytesStore
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCache(client BytesStore, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (rc *RedisCache) Name() string {
	return "redis"
}

func (rc *RedisCache) Store(ctx context.Context, key string, data []byte) error {
	if err := rc.client.SetBytes(ctx, redisAssetPrefix+key, data, rc.ttl); err != nil {
		return errors.Wrap(err, "storing in redis failed")
	}
	return nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rc.client.GetBytes(ctx, redisAssetPrefix+key)
	if err != nil {
		rc.misses.Add(1)
		return nil, errors.Wrap(err, "reading from redis failed")
	}
	if data == nil {
		rc.misses.Add(1)
		return nil, cache.ErrMiss
	}

	rc.hits.Add(1)
	return data, nil
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Delete(ctx, redisAssetPrefix+key)
}

func (rc *RedisCache) GetStats() cache.LayerStats {
	hits := rc.hits.Load()
	misses := rc.misses.Load()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	keys, _ := rc.client.Keys(ctx, redisAssetPrefix+"*")

	return cache.LayerStats{
		Name:    rc.Name(),
		Objects: len(keys),
		Hits:    hits,
		Misses:  misses,
		HitRate: cache.HitRate(hits, misses),
	}
}
