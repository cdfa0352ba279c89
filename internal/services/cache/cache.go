// Package cache defines the layers that keep downloaded assets close to the
// HTTP handlers and a chain that walks them in order.
package cache

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/pkg/errors"

	"scene-service/internal/metrics"
)

// ErrMiss is returned by Get when the layer does not hold the key.
var ErrMiss = errors.New("cache miss")

type CacheLayer interface {
	Name() string
	Store(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	GetStats() LayerStats
}

type LayerStats struct {
	Name      string  `json:"name"`
	Objects   int     `json:"objects"`
	SizeBytes int64   `json:"sizeBytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"`
}

// HitRate returns hits as a percentage of all lookups.
func HitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Chain looks keys up in each layer in order. A hit in a later layer is
// copied into the earlier ones.
type Chain struct {
	layers []CacheLayer
}

func NewChain(layers ...CacheLayer) *Chain {
	return &Chain{layers: layers}
}

// Get returns the cached data and the name of the layer that held it.
func (c *Chain) Get(ctx context.Context, key string) ([]byte, string, error) {
	for i, l := range c.layers {
		start := time.Now()
		data, err := l.Get(ctx, key)
		metrics.RecordCacheLayer(l.Name(), err == nil, float64(time.Since(start).Microseconds())/1000)
		if errors.Is(err, ErrMiss) {
			continue
		}
		if err != nil {
			logs.WithTag("layer", l.Name()).WithTag("key", key).Warn(err)
			continue
		}

		for _, earlier := range c.layers[:i] {
			if err := earlier.Store(ctx, key, data); err != nil {
				logs.WithTag("layer", earlier.Name()).WithTag("key", key).Debug(err)
			}
		}
		return data, l.Name(), nil
	}
	return nil, "", ErrMiss
}

// Store writes data to every layer. It fails only if no layer accepted it.
func (c *Chain) Store(ctx context.Context, key string, data []byte) error {
	var lastErr error
	stored := 0
	for _, l := range c.layers {
		if err := l.Store(ctx, key, data); err != nil {
			lastErr = errors.Wrapf(err, "storing %s in %s failed", key, l.Name())
			continue
		}
		stored++
	}
	if stored == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

func (c *Chain) Delete(ctx context.Context, key string) {
	for _, l := range c.layers {
		if err := l.Delete(ctx, key); err != nil {
			logs.WithTag("layer", l.Name()).WithTag("key", key).Warn(err)
		}
	}
}

func (c *Chain) Stats() []LayerStats {
	stats := make([]LayerStats, 0, len(c.layers))
	for _, l := range c.layers {
		stats = append(stats, l.GetStats())
	}
	return stats
}
