package services

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var _ BlobStore = (*MemoryBlobStore)(nil)

type memoryBlob struct {
	data        []byte
	contentType string
	meta        map[string]string
}

// MemoryBlobStore keeps assets in process memory. It serves deployments
// without object storage and tests. Metadata keys are stored lowercased, the
// way object stores canonicalize them.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]memoryBlob)}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	stored := make(map[string]string, len(meta))
	for k, v := range meta {
		stored[strings.ToLower(k)] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = memoryBlob{data: data, contentType: contentType, meta: stored}
	return nil
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, errors.Wrap(ErrAssetNotFound, key)
	}
	return b.data, nil
}

func (s *MemoryBlobStore) Meta(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, errors.Wrap(ErrAssetNotFound, key)
	}
	return b.meta, nil
}

func (s *MemoryBlobStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// ContentType returns the media type an object was stored with.
func (s *MemoryBlobStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blobs[key].contentType
}

func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
