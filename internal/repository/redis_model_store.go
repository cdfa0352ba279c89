package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"scene-service/internal/models"
)

const redisKeyPrefix = "scene:model:"

var _ PlacedModelRepository = (*RedisModelStore)(nil)

// DocumentBackend is the subset of storage.RedisClient used by RedisModelStore.
type DocumentBackend interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, expiration time.Duration) error
	MGetBytes(ctx context.Context, keys ...string) ([][]byte, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisModelStore keeps each placed model as a JSON document under
// "scene:model:<id>".
type RedisModelStore struct {
	backend DocumentBackend
}

func NewRedisModelStore(backend DocumentBackend) *RedisModelStore {
	return &RedisModelStore{backend: backend}
}

// modelRecord is the stored document. Records written before hidden existed
// have no such field, and older clients wrote the asset under modelPath.
type modelRecord struct {
	Position  models.Vector3 `json:"position"`
	Rotation  models.Vector3 `json:"rotation"`
	AssetPath string         `json:"assetPath,omitempty"`
	ModelPath string         `json:"modelPath,omitempty"`
	Hidden    *bool          `json:"hidden,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func encodeRecord(m *models.PlacedModel) ([]byte, error) {
	hidden := m.Hidden
	return json.Marshal(modelRecord{
		Position:  m.Position,
		Rotation:  m.Rotation,
		AssetPath: m.AssetPath,
		Hidden:    &hidden,
		UpdatedAt: m.UpdatedAt,
	})
}

func decodeRecord(id string, data []byte) (*models.PlacedModel, error) {
	var rec modelRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "decoding placed model %s failed", id)
	}

	m := &models.PlacedModel{
		ID:        id,
		Position:  rec.Position,
		Rotation:  rec.Rotation,
		AssetPath: rec.AssetPath,
		UpdatedAt: rec.UpdatedAt,
	}
	if m.AssetPath == "" {
		m.AssetPath = rec.ModelPath
	}
	if rec.Hidden != nil {
		m.Hidden = *rec.Hidden
	}
	return m, nil
}

func (s *RedisModelStore) Get(ctx context.Context, id string) (*models.PlacedModel, error) {
	data, err := s.backend.GetBytes(ctx, redisKeyPrefix+id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading placed model %s failed", id)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return decodeRecord(id, data)
}

func (s *RedisModelStore) Set(ctx context.Context, m *models.PlacedModel) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	data, err := encodeRecord(m)
	if err != nil {
		return errors.Wrapf(err, "encoding placed model %s failed", m.ID)
	}
	return errors.Wrapf(s.backend.SetBytes(ctx, redisKeyPrefix+m.ID, data, 0),
		"saving placed model %s failed", m.ID)
}

func (s *RedisModelStore) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(s.backend.Delete(ctx, redisKeyPrefix+id), "deleting placed model %s failed", id)
}

func (s *RedisModelStore) ListAll(ctx context.Context) ([]models.PlacedModel, error) {
	keys, err := s.backend.Keys(ctx, redisKeyPrefix+"*")
	if err != nil {
		return nil, errors.Wrap(err, "listing placed model keys failed")
	}
	sort.Strings(keys)

	docs, err := s.backend.MGetBytes(ctx, keys...)
	if err != nil {
		return nil, errors.Wrap(err, "loading placed models failed")
	}

	list := make([]models.PlacedModel, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			// deleted between SCAN and MGET
			continue
		}
		m, err := decodeRecord(strings.TrimPrefix(keys[i], redisKeyPrefix), data)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, nil
}
