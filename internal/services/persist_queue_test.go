package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"scene-service/internal/models"
	"scene-service/internal/repository"
)

// gatedStore counts writes and can hold them until released.
type gatedStore struct {
	*repository.MemoryModelStore

	mu      sync.Mutex
	sets    map[string]int
	failIDs map[string]bool
	entered chan string
	gate    chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryModelStore: repository.NewMemoryModelStore(),
		sets:             make(map[string]int),
		failIDs:          make(map[string]bool),
	}
}

func (s *gatedStore) Set(ctx context.Context, m *models.PlacedModel) error {
	if s.entered != nil {
		s.entered <- m.ID
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	s.sets[m.ID]++
	fail := s.failIDs[m.ID]
	s.mu.Unlock()

	if fail {
		return errors.New("write refused")
	}
	return s.MemoryModelStore.Set(ctx, m)
}

func (s *gatedStore) setCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[id]
}

func startQueue(t *testing.T, store repository.PlacedModelRepository) *WriteQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewWriteQueue(store, time.Second)

	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return q
}

func modelAt(id string, x float64) models.PlacedModel {
	return models.PlacedModel{ID: id, Position: models.Vector3{X: x}, AssetPath: "/models/" + id + ".glb"}
}

func TestWriteQueueLatestWriteWins(t *testing.T) {
	store := newGatedStore()
	store.entered = make(chan string, 16)
	store.gate = make(chan struct{})
	q := startQueue(t, store)

	q.Enqueue(modelAt("a", 1))
	require.Equal(t, "a", <-store.entered)

	// The first write is in flight; these collapse into one pending write.
	for x := 2.0; x <= 6; x++ {
		q.Enqueue(modelAt("a", x))
	}
	require.Equal(t, 1, q.Len())

	close(store.gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))

	require.Equal(t, 2, store.setCount("a"))
	m, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, models.Vector3{X: 6}, m.Position)
}

func TestWriteQueueSaveWaitsForWrite(t *testing.T) {
	store := newGatedStore()
	q := startQueue(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, q.Save(ctx, modelAt("a", 1)))
	require.NoError(t, q.Save(ctx, modelAt("a", 1)))

	list, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.PlacedModel{modelAt("a", 1)}, list)
}

func TestWriteQueueDeleteDropsPendingWrite(t *testing.T) {
	store := newGatedStore()
	store.entered = make(chan string, 16)
	store.gate = make(chan struct{})
	q := startQueue(t, store)

	q.Enqueue(modelAt("b", 0))
	require.Equal(t, "b", <-store.entered)

	q.Enqueue(modelAt("a", 1))
	errc := make(chan error, 1)
	go func() {
		errc <- q.Delete(context.Background(), "a")
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		op, ok := q.pending["a"]
		return ok && op.kind == opDelete
	}, time.Second, time.Millisecond)

	close(store.gate)
	require.NoError(t, <-errc)
	require.Zero(t, store.setCount("a"))

	_, err := store.Get(context.Background(), "a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWriteQueueWriteNeverReplacesPendingDelete(t *testing.T) {
	store := newGatedStore()
	store.entered = make(chan string, 16)
	store.gate = make(chan struct{})
	require.NoError(t, store.MemoryModelStore.Set(context.Background(), &models.PlacedModel{ID: "a"}))
	q := startQueue(t, store)

	q.Enqueue(modelAt("b", 0))
	require.Equal(t, "b", <-store.entered)

	deleted := q.ScheduleDelete("a")
	require.ErrorIs(t, q.Schedule(modelAt("a", 1))(context.Background()), ErrModelDeleted)
	q.Enqueue(modelAt("a", 2))
	require.Equal(t, 1, q.Len())

	close(store.gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, deleted(ctx))
	require.Zero(t, store.setCount("a"))

	_, err := store.Get(context.Background(), "a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWriteQueueFailureDoesNotStopWorker(t *testing.T) {
	store := newGatedStore()
	store.failIDs["bad"] = true
	q := startQueue(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, q.Save(ctx, modelAt("bad", 1)))
	require.NoError(t, q.Save(ctx, modelAt("good", 1)))

	_, err := store.Get(ctx, "good")
	require.NoError(t, err)
}

func TestWriteQueueDrainsOnShutdown(t *testing.T) {
	store := newGatedStore()
	q := NewWriteQueue(store, time.Second)

	q.Enqueue(modelAt("a", 1))
	q.Enqueue(modelAt("b", 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	require.Zero(t, q.Len())
	require.Equal(t, 1, store.setCount("a"))
	require.Equal(t, 1, store.setCount("b"))
}

func TestWriteQueueSaveHonoursContext(t *testing.T) {
	q := NewWriteQueue(repository.NewMemoryModelStore(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Save(ctx, modelAt("a", 1)), context.Canceled)
}

func TestWriteQueueRefusesWritesAfterShutdown(t *testing.T) {
	store := newGatedStore()
	q := NewWriteQueue(store, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	require.ErrorIs(t, q.Save(context.Background(), modelAt("a", 1)), ErrQueueClosed)
	require.ErrorIs(t, q.Delete(context.Background(), "a"), ErrQueueClosed)
	q.Enqueue(modelAt("a", 2))

	require.Zero(t, q.Len())
	require.Zero(t, store.setCount("a"))
}
