package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"scene-service/internal/metrics"
)

// ErrAssetNotFound is returned when no stored object matches a key.
var ErrAssetNotFound = errors.New("asset not found")

// BlobStore holds uploaded asset files.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Meta returns the user metadata stored with the object.
	Meta(ctx context.Context, key string) (map[string]string, error)
	Remove(ctx context.Context, key string) error
}

// MinioBlobStore stores assets in a MinIO bucket and records each operation
// in the storage metrics.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

func NewMinioBlobStore(client *minio.Client, bucket string) *MinioBlobStore {
	return &MinioBlobStore{client: client, bucket: bucket}
}

func (s *MinioBlobStore) Put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	metrics.RecordStorage("put", int64(len(data)), time.Since(start).Milliseconds(), err)
	if err != nil {
		return errors.Wrapf(err, "uploading %s to minio failed", key)
	}
	return nil
}

func (s *MinioBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		metrics.RecordStorage("get", 0, time.Since(start).Milliseconds(), err)
		return nil, errors.Wrapf(err, "fetching %s from minio failed", key)
	}

	rc := NewCountingRC(obj)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	n, _, _ := rc.Stats()
	metrics.RecordStorage("get", n, time.Since(start).Milliseconds(), err)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrap(ErrAssetNotFound, key)
		}
		return nil, errors.Wrapf(err, "reading %s from minio failed", key)
	}
	return data, nil
}

func (s *MinioBlobStore) Meta(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	metrics.RecordStorage("stat", 0, time.Since(start).Milliseconds(), err)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrap(ErrAssetNotFound, key)
		}
		return nil, errors.Wrapf(err, "stat of %s failed", key)
	}
	return info.UserMetadata, nil
}

func (s *MinioBlobStore) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	metrics.RecordStorage("remove", 0, time.Since(start).Milliseconds(), err)
	return errors.Wrapf(err, "removing %s from minio failed", key)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

// countingReadCloser tracks how many bytes were read and how long reads took.
type countingReadCloser struct {
	rc         io.ReadCloser
	bytes      int64
	lastReadMs int64
	sumReadMs  int64
}

func NewCountingRC(rc io.ReadCloser) *countingReadCloser { return &countingReadCloser{rc: rc} }

func (c *countingReadCloser) Read(p []byte) (int, error) {
	t0 := time.Now()
	n, err := c.rc.Read(p)
	lat := time.Since(t0).Milliseconds()
	c.lastReadMs = lat
	c.sumReadMs += lat
	c.bytes += int64(n)
	return n, err
}

func (c *countingReadCloser) Close() error { return c.rc.Close() }

func (c *countingReadCloser) Stats() (bytes int64, lastReadMs, totalReadMs int64) {
	return c.bytes, c.lastReadMs, c.sumReadMs
}

// metaValue looks a user metadata key up regardless of the case the store
// returns it in.
func metaValue(meta map[string]string, key string) (string, bool) {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
