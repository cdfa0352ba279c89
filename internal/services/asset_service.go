package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"scene-service/internal/conversion"
	"scene-service/internal/extraction"
	"scene-service/internal/geometry"
	"scene-service/internal/gltf"
	"scene-service/internal/metrics"
	"scene-service/internal/models"
	"scene-service/internal/services/cache"
)

const (
	// PublicPrefix is the path under which stored assets are downloaded.
	PublicPrefix = "/models/"

	storagePrefix = "models/"
	glbMediaType  = "model/gltf-binary"
	boundsMetaKey = "Bounds"

	preloadWorkers = 4
)

// AssetService stores uploaded model files and serves them back.
type AssetService struct {
	blobs  BlobStore
	cache  *cache.Chain
	policy UploadPolicy

	convert func(ctx context.Context, path string) (string, error)
	extract func(ctx context.Context, archivePath string) (string, string, error)
	now     func() time.Time
}

// NewAssetService creates an AssetService. downloads may be nil to disable
// caching.
func NewAssetService(blobs BlobStore, downloads *cache.Chain, policy UploadPolicy) *AssetService {
	return &AssetService{
		blobs:   blobs,
		cache:   downloads,
		policy:  policy,
		convert: conversion.ConvertToGLB,
		extract: extraction.ExtractModel,
		now:     time.Now,
	}
}

// Upload validates and stores an uploaded model. Non-GLB formats are
// converted when the policy allows it. The returned bounds are nil when the
// file carries none.
func (s *AssetService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (*models.Asset, *geometry.AABB, error) {
	if uerr := s.policy.Validate(filename, size); uerr != nil {
		return nil, nil, uerr
	}

	data, err := io.ReadAll(io.LimitReader(r, s.policy.MaxBytes+1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not read uploaded file")
	}
	if int64(len(data)) > s.policy.MaxBytes {
		return nil, nil, rejectUpload(ReasonTooLarge, fmt.Sprintf("File size must be less than %dMB", s.policy.MaxBytes>>20))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".glb" {
		if data, err = s.toGLB(ctx, ext, data); err != nil {
			return nil, nil, rejectUpload(ReasonInvalidFormat, err.Error())
		}
	}
	if !gltf.IsGLB(data) {
		return nil, nil, rejectUpload(ReasonInvalidFormat, "File is not a valid GLB model")
	}

	var bounds *geometry.AABB
	if box, err := gltf.ReadBounds(bytes.NewReader(data)); err != nil {
		logs.WithTag("filename", filename).Debug(err)
	} else {
		bounds = &box
	}

	stored := SanitizeFilename(filename, s.now())
	stored = strings.TrimSuffix(stored, filepath.Ext(stored)) + ".glb"

	meta := map[string]string{}
	if bounds != nil {
		meta[boundsMetaKey] = encodeBounds(*bounds)
	}
	key := storagePrefix + stored
	if err := s.blobs.Put(ctx, key, data, glbMediaType, meta); err != nil {
		return nil, nil, err
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, stored, data); err != nil {
			logs.WithTag("filename", stored).Debug(err)
		}
	}

	asset := &models.Asset{
		Filename:         stored,
		OriginalFilename: filename,
		ContentType:      glbMediaType,
		Size:             int64(len(data)),
		UploadedAt:       s.now(),
		StorageKey:       key,
		PublicPath:       PublicPrefix + stored,
	}
	if bounds != nil {
		asset.Bounds = &models.Bounds{Min: models.NewVector3(bounds.Min), Max: models.NewVector3(bounds.Max)}
	}

	logs.WithTag("filename", stored).
		WithTag("original_filename", filename).
		WithTag("size", asset.Size).
		Info("asset stored")
	return asset, bounds, nil
}

func (s *AssetService) toGLB(ctx context.Context, ext string, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create temporary directory")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload"+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "failed to write uploaded file")
	}

	if extraction.IsArchiveFile(ext) {
		modelPath, extracted, err := s.extract(ctx, path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to extract archive")
		}
		defer os.RemoveAll(extracted)
		path = modelPath
	}

	if strings.ToLower(filepath.Ext(path)) != ".glb" {
		if path, err = s.convert(ctx, path); err != nil {
			return nil, errors.Wrap(err, "conversion to glb failed")
		}
	}
	return os.ReadFile(path)
}

// Discard removes a stored asset whose model could not be created.
func (s *AssetService) Discard(ctx context.Context, asset *models.Asset) {
	if s.cache != nil {
		s.cache.Delete(ctx, asset.Filename)
	}
	if err := s.blobs.Remove(ctx, asset.StorageKey); err != nil {
		logs.WithTag("filename", asset.Filename).Warn(err)
	}
}

// LocalBounds returns the geometry bounds recorded for the asset at the given
// public path.
func (s *AssetService) LocalBounds(ctx context.Context, assetPath string) (*geometry.AABB, error) {
	filename, ok := strings.CutPrefix(assetPath, PublicPrefix)
	if !ok || !validFilename(filename) {
		return nil, errors.Errorf("%s is not a stored asset path", assetPath)
	}

	meta, err := s.blobs.Meta(ctx, storagePrefix+filename)
	if err != nil {
		return nil, err
	}
	value, ok := metaValue(meta, boundsMetaKey)
	if !ok {
		return nil, errors.Errorf("asset %s has no recorded bounds", filename)
	}
	box, err := decodeBounds(value)
	if err != nil {
		return nil, err
	}
	return &box, nil
}

// Download returns the content of a stored asset, from the cache when
// possible.
func (s *AssetService) Download(ctx context.Context, filename string) ([]byte, error) {
	if !validFilename(filename) {
		return nil, errors.Wrap(ErrAssetNotFound, filename)
	}

	if s.cache != nil {
		if data, _, err := s.cache.Get(ctx, filename); err == nil {
			metrics.RecordAssetCache(true)
			return data, nil
		}
		metrics.RecordAssetCache(false)
	}

	data, err := s.blobs.Get(ctx, storagePrefix+filename)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, filename, data); err != nil {
			logs.WithTag("filename", filename).Debug(err)
		}
	}
	return data, nil
}

func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

func encodeBounds(b geometry.AABB) string {
	values := []float64{b.Min.X(), b.Min.Y(), b.Min.Z(), b.Max.X(), b.Max.Y(), b.Max.Z()}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func decodeBounds(s string) (geometry.AABB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return geometry.AABB{}, errors.Errorf("malformed bounds %q", s)
	}

	var v [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.AABB{}, errors.Wrapf(err, "malformed bounds %q", s)
		}
		v[i] = f
	}
	return geometry.NewAABB(mgl64.Vec3{v[0], v[1], v[2]}, mgl64.Vec3{v[3], v[4], v[5]}), nil
}

// Preload warms the download cache with stored files, fetching at most
// preloadWorkers at a time.
func (s *AssetService) Preload(ctx context.Context, filenames []string) *metrics.PreloadReport {
	report := metrics.NewPreloadReport(len(filenames))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)
	for _, name := range filenames {
		g.Go(func() error {
			data, err := s.Download(ctx, name)
			if err != nil {
				logs.WithTag("filename", name).Debug(err)
			}

			mu.Lock()
			report.Add(name, int64(len(data)), err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.Finish()
	return report
}

// Invalidate drops a file from every cache layer. The stored file is kept.
func (s *AssetService) Invalidate(ctx context.Context, filename string) error {
	if !validFilename(filename) {
		return errors.Wrap(ErrAssetNotFound, filename)
	}
	if s.cache != nil {
		s.cache.Delete(ctx, filename)
	}
	return nil
}
