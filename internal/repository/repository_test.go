package repository

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scene-service/internal/models"
)

type fakeBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: make(map[string][]byte)}
}

func (b *fakeBackend) GetBytes(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.docs[key], nil
}

func (b *fakeBackend) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[key] = append([]byte(nil), value...)
	return nil
}

func (b *fakeBackend) MGetBytes(_ context.Context, keys ...string) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = b.docs[k]
	}
	return out, nil
}

func (b *fakeBackend) Keys(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.docs {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (b *fakeBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.docs, k)
	}
	return nil
}

func sampleModel(id string) models.PlacedModel {
	return models.PlacedModel{
		ID:        id,
		Position:  models.Vector3{X: 1, Z: -3},
		Rotation:  models.Vector3{Y: 1.5},
		AssetPath: "/models/" + id + ".glb",
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func stores() map[string]PlacedModelRepository {
	return map[string]PlacedModelRepository{
		"memory": NewMemoryModelStore(),
		"redis":  NewRedisModelStore(newFakeBackend()),
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nope")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreSetIsIdempotent(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			m := sampleModel("a")
			require.NoError(t, s.Set(ctx, &m))
			once, err := s.ListAll(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Set(ctx, &m))
			twice, err := s.ListAll(ctx)
			require.NoError(t, err)

			require.Equal(t, once, twice)
			require.Len(t, twice, 1)
		})
	}
}

func TestStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			m := sampleModel("a")
			require.NoError(t, s.Set(ctx, &m))

			m.Position = models.Vector3{X: 9, Z: 9}
			m.Hidden = true
			require.NoError(t, s.Set(ctx, &m))

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, models.Vector3{X: 9, Z: 9}, got.Position)
			require.True(t, got.Hidden)
		})
	}
}

func TestStoreDeleteAndList(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"c", "a", "b"} {
				m := sampleModel(id)
				require.NoError(t, s.Set(ctx, &m))
			}
			require.NoError(t, s.Delete(ctx, "b"))
			require.NoError(t, s.Delete(ctx, "missing"))

			list, err := s.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			require.Equal(t, "a", list[0].ID)
			require.Equal(t, "c", list[1].ID)
		})
	}
}

func TestDecodeRecordWithoutHiddenField(t *testing.T) {
	legacy := []byte(`{"position":{"x":-2,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0},"modelPath":"/models/model1.glb"}`)

	m, err := decodeRecord("model1", legacy)
	require.NoError(t, err)
	require.Equal(t, "model1", m.ID)
	require.False(t, m.Hidden)
	require.Equal(t, "/models/model1.glb", m.AssetPath)
	require.Equal(t, models.Vector3{X: -2}, m.Position)
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	_, err := decodeRecord("x", []byte("{not json"))
	require.Error(t, err)
}

func TestRedisStoreSkipsVanishedKeys(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := NewRedisModelStore(backend)

	m := sampleModel("a")
	require.NoError(t, s.Set(ctx, &m))
	backend.docs[redisKeyPrefix+"ghost"] = nil

	list, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "a", list[0].ID)
}
