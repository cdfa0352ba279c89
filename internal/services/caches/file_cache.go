package caches

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/pkg/errors"

	"scene-service/internal/services/cache"
)

var _ cache.CacheLayer = (*FileCache)(nil)

// FileCache keeps assets as files in a local directory. Modification times
// double as access times: a read touches the file, and the oldest file is
// evicted first.
type FileCache struct {
	basePath    string
	maxSize     int64
	currentSize atomic.Int64
	ttl         time.Duration
	mu          sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewFileCache creates basePath when missing and accounts for the files it
// already holds.
func NewFileCache(basePath string, maxSizeBytes int64, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache directory %s failed", basePath)
	}

	fc := &FileCache{
		basePath: basePath,
		maxSize:  maxSizeBytes,
		ttl:      ttl,
	}

	var total int64
	fc.walk(func(_ string, info fs.FileInfo) {
		total += info.Size()
	})
	fc.currentSize.Store(total)
	return fc, nil
}

func (fc *FileCache) Name() string {
	return "file"
}

func (fc *FileCache) Store(_ context.Context, key string, data []byte) error {
	path, err := fc.path(key)
	if err != nil {
		return err
	}

	size := int64(len(data))
	if size > fc.maxSize {
		return errors.Errorf("object of %d bytes exceeds file cache size %d", size, fc.maxSize)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.removeLocked(path)
	for fc.currentSize.Load()+size > fc.maxSize {
		if !fc.evictOldestLocked() {
			return errors.Errorf("unable to free space for file of size %d", size)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing cache file failed")
	}
	fc.currentSize.Add(size)
	return nil
}

func (fc *FileCache) Get(_ context.Context, key string) ([]byte, error) {
	path, err := fc.path(key)
	if err != nil {
		fc.misses.Add(1)
		return nil, cache.ErrMiss
	}

	info, err := os.Stat(path)
	if err == nil && fc.expired(info) {
		fc.mu.Lock()
		fc.removeLocked(path)
		fc.mu.Unlock()
		err = fs.ErrNotExist
	}
	if errors.Is(err, fs.ErrNotExist) {
		fc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	if err != nil {
		fc.misses.Add(1)
		return nil, errors.Wrap(err, "reading cache file failed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fc.misses.Add(1)
		return nil, errors.Wrap(err, "reading cache file failed")
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		logs.WithTag("path", path).Debug(err)
	}

	fc.hits.Add(1)
	return data, nil
}

func (fc *FileCache) Delete(_ context.Context, key string) error {
	path, err := fc.path(key)
	if err != nil {
		return nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.removeLocked(path)
	return nil
}

func (fc *FileCache) GetStats() cache.LayerStats {
	objects := 0
	fc.walk(func(string, fs.FileInfo) {
		objects++
	})

	hits := fc.hits.Load()
	misses := fc.misses.Load()
	return cache.LayerStats{
		Name:      fc.Name(),
		Objects:   objects,
		SizeBytes: fc.currentSize.Load(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// Run removes expired files every interval until ctx is done.
func (fc *FileCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := fc.cleanupExpired(); n > 0 {
				logs.WithTag("expired", n).Debug("file cache cleaned up")
			}
		}
	}
}

func (fc *FileCache) cleanupExpired() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var expired []string
	fc.walk(func(path string, info fs.FileInfo) {
		if fc.expired(info) {
			expired = append(expired, path)
		}
	})
	for _, path := range expired {
		fc.removeLocked(path)
	}
	return len(expired)
}

func (fc *FileCache) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return "", errors.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(fc.basePath, key), nil
}

func (fc *FileCache) expired(info fs.FileInfo) bool {
	return fc.ttl > 0 && time.Since(info.ModTime()) > fc.ttl
}

func (fc *FileCache) walk(fn func(path string, info fs.FileInfo)) {
	entries, err := os.ReadDir(fc.basePath)
	if err != nil {
		logs.WithTag("path", fc.basePath).Warn(err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fn(filepath.Join(fc.basePath, e.Name()), info)
	}
}

func (fc *FileCache) removeLocked(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		logs.WithTag("path", path).Warn(err)
		return
	}
	fc.currentSize.Add(-info.Size())
}

func (fc *FileCache) evictOldestLocked() bool {
	var oldestPath string
	var oldestTime time.Time

	fc.walk(func(path string, info fs.FileInfo) {
		if oldestPath == "" || info.ModTime().Before(oldestTime) {
			oldestPath = path
			oldestTime = info.ModTime()
		}
	})
	if oldestPath == "" {
		return false
	}
	fc.removeLocked(oldestPath)
	return true
}
