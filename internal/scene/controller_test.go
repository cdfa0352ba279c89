package scene

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
	"scene-service/internal/repository"
)

// storePersister writes straight through to a store and remembers what it
// was asked to do.
type storePersister struct {
	mu       sync.Mutex
	store    repository.PlacedModelRepository
	enqueued []models.PlacedModel
	saveErr  error
	delErr   error
	gate     chan struct{}
}

func (p *storePersister) Enqueue(m models.PlacedModel) {
	p.mu.Lock()
	p.enqueued = append(p.enqueued, m)
	p.mu.Unlock()
	_ = p.store.Set(context.Background(), &m)
}

// Schedule and ScheduleDelete run the write when waited on. While gate is
// set they hold until it is closed.
func (p *storePersister) Schedule(m models.PlacedModel) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.hold(ctx); err != nil {
			return err
		}
		if p.saveErr != nil {
			return p.saveErr
		}
		return p.store.Set(ctx, &m)
	}
}

func (p *storePersister) ScheduleDelete(id string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.hold(ctx); err != nil {
			return err
		}
		if p.delErr != nil {
			return p.delErr
		}
		return p.store.Delete(ctx, id)
	}
}

func (p *storePersister) hold(ctx context.Context) error {
	if p.gate == nil {
		return nil
	}
	select {
	case <-p.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type brokenStore struct {
	repository.PlacedModelRepository
}

func (brokenStore) ListAll(context.Context) ([]models.PlacedModel, error) {
	return nil, errors.New("connection refused")
}

type staticBounds map[string]geometry.AABB

func (b staticBounds) LocalBounds(_ context.Context, assetPath string) (*geometry.AABB, error) {
	box, ok := b[assetPath]
	if !ok {
		return nil, errors.New("no bounds")
	}
	return &box, nil
}

func newController(t *testing.T, store repository.PlacedModelRepository, opts Options) (*SceneController, *storePersister) {
	persister := &storePersister{store: store}
	n := 0
	opts.NewID = func() string {
		n++
		return "new" + strconv.Itoa(n)
	}
	c := NewSceneController(store, persister, opts)
	require.NoError(t, c.Load(context.Background()))
	return c, persister
}

func TestControllerLoadSeedsEmptyStore(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())

	require.Equal(t, models.DefaultModels(), c.Models())

	stored, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "model1", stored[0].ID)
	require.Equal(t, models.Vector3{X: -2}, stored[0].Position)
}

func TestControllerLoadFallsBackOnReadError(t *testing.T) {
	store := repository.NewMemoryModelStore()
	persister := &storePersister{store: store}
	c := NewSceneController(brokenStore{store}, persister, DefaultOptions())

	require.NoError(t, c.Load(context.Background()))
	require.Equal(t, models.DefaultModels(), c.Models())
	require.Zero(t, store.Len())
}

func TestControllerLoadUsesStoredModels(t *testing.T) {
	store := repository.NewMemoryModelStore(
		models.PlacedModel{ID: "x", Position: models.Vector3{X: 1}, Rotation: models.Vector3{Y: -math.Pi / 2}, AssetPath: "/models/x.glb"},
	)
	opts := DefaultOptions()
	opts.Bounds = staticBounds{"/models/x.glb": unitBox}
	c, _ := newController(t, store, opts)

	list := c.Models()
	require.Len(t, list, 1)
	require.InDelta(t, 1.5*math.Pi, list[0].Rotation.Y, 1e-9)

	_, ok := c.BoundsOf("x")
	require.True(t, ok)
}

func TestControllerCreateModelPlacesAndPersists(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())

	m, p, err := c.CreateModel(context.Background(), "/models/chair.glb", nil)
	require.NoError(t, err)
	require.True(t, p.Found)
	require.Equal(t, "new1", m.ID)
	require.Equal(t, models.Vector3{X: 5, Z: -5}, m.Position)
	require.Equal(t, models.Vector3{}, m.Rotation)
	require.False(t, m.Hidden)

	stored, err := store.Get(context.Background(), "new1")
	require.NoError(t, err)
	require.Equal(t, "/models/chair.glb", stored.AssetPath)

	second, p, err := c.CreateModel(context.Background(), "/models/table.glb", nil)
	require.NoError(t, err)
	require.Equal(t, 1, p.Attempts)
	require.NotEqual(t, m.Position, second.Position)
	require.Len(t, c.Models(), 4)
}

func TestControllerCreateModelKeepsModelWhenSaveFails(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())
	persister.saveErr = errors.New("disk full")

	m, _, err := c.CreateModel(context.Background(), "/models/chair.glb", nil)
	require.NoError(t, err)

	got, err := c.Model(m.ID)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestControllerDragWhileCreateWaitsForStore(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())
	require.NoError(t, c.SetGeometryBounds("model1", unitBox))
	require.NoError(t, c.SetGeometryBounds("model2", unitBox))
	persister.gate = make(chan struct{})

	created := make(chan models.PlacedModel, 1)
	go func() {
		m, _, _ := c.CreateModel(context.Background(), "/models/chair.glb", nil)
		created <- m
	}()
	require.Eventually(t, func() bool {
		_, err := c.Model("new1")
		return err == nil
	}, time.Second, time.Millisecond)

	_, err := c.BeginDrag("model1", pointerAt(-2, 0))
	require.NoError(t, err)
	res, err := c.DragMove(pointerAt(-3, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	_, ok := c.EndDrag()
	require.True(t, ok)

	select {
	case <-created:
		t.Fatal("model creation returned before its write completed")
	default:
	}

	close(persister.gate)
	m := <-created
	require.Equal(t, "new1", m.ID)
	_, err = store.Get(context.Background(), "new1")
	require.NoError(t, err)
}

func TestControllerDeleteWaitsOutsideSceneLock(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())
	persister.gate = make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		errc <- c.Delete(context.Background(), "model1")
	}()
	require.Eventually(t, func() bool {
		return len(c.Models()) == 1
	}, time.Second, time.Millisecond)

	_, err := c.SetHidden("model2", true)
	require.NoError(t, err)

	close(persister.gate)
	require.NoError(t, <-errc)
	_, err = store.Get(context.Background(), "model1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestControllerDeleteGivenUpKeepsModelRemoved(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())
	persister.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Delete(ctx, "model1"), context.Canceled)
	require.Len(t, c.Models(), 1)
}

func TestControllerPreviewIgnoresHiddenModels(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())

	m, _, err := c.CreateModel(context.Background(), "/models/chair.glb", nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.PreviewPlacement().Attempts)

	_, err = c.SetHidden(m.ID, true)
	require.NoError(t, err)

	p := c.PreviewPlacement()
	require.Equal(t, 0, p.Attempts)
	require.Equal(t, mgl64.Vec3{5, 0, -5}, p.Position)
}

func TestControllerSetRotationWraps(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())

	m, err := c.SetRotation("model1", mgl64.Vec3{-math.Pi / 2, 5 * math.Pi, 0})
	require.NoError(t, err)
	require.InDelta(t, 1.5*math.Pi, m.Rotation.X, 1e-9)
	require.InDelta(t, math.Pi, m.Rotation.Y, 1e-9)
	require.Len(t, persister.enqueued, 1)

	_, err = c.SetRotation("missing", mgl64.Vec3{})
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestControllerDelete(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())

	persister.delErr = errors.New("timeout")
	require.Error(t, c.Delete(context.Background(), "model1"))
	require.Len(t, c.Models(), 2)

	persister.delErr = nil
	require.NoError(t, c.Delete(context.Background(), "model1"))
	require.Len(t, c.Models(), 1)

	_, err := store.Get(context.Background(), "model1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, c.Delete(context.Background(), "model1"), ErrModelNotFound)
}

func TestControllerDeleteAbandonsActiveDrag(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())

	_, err := c.BeginDrag("model1", pointerAt(-2, 0))
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), "model1"))

	state, id := c.DragState()
	require.Equal(t, Idle, state)
	require.Empty(t, id)
}

func TestControllerDragSession(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, persister := newController(t, store, DefaultOptions())
	require.NoError(t, c.SetGeometryBounds("model1", unitBox))
	require.NoError(t, c.SetGeometryBounds("model2", unitBox))

	var notified []string
	c.OnPositionChange(func(id string, _ mgl64.Vec3) {
		notified = append(notified, id)
	})

	_, err := c.BeginDrag("model1", pointerAt(-2, 0))
	require.NoError(t, err)

	res, err := c.DragMove(pointerAt(-1, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = c.DragMove(pointerAt(0.5, 0))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "model2", res.BlockedBy)

	m, ok := c.EndDrag()
	require.True(t, ok)
	require.Equal(t, models.Vector3{X: -1}, m.Position)

	_, ok = c.EndDrag()
	require.False(t, ok)

	require.Equal(t, []string{"model1"}, notified)
	require.Len(t, persister.enqueued, 1)

	stored, err := store.Get(context.Background(), "model1")
	require.NoError(t, err)
	require.Equal(t, models.Vector3{X: -1}, stored.Position)
}

func TestControllerSetGeometryBoundsValidates(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())

	inverted := geometry.AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{0, 0, 0}}
	require.Error(t, c.SetGeometryBounds("model1", inverted))
	require.ErrorIs(t, c.SetGeometryBounds("missing", unitBox), ErrModelNotFound)

	_, ok := c.BoundsOf("model1")
	require.False(t, ok)
}

func TestControllerSceneStats(t *testing.T) {
	store := repository.NewMemoryModelStore()
	c, _ := newController(t, store, DefaultOptions())
	require.NoError(t, c.SetGeometryBounds("model1", unitBox))

	_, err := c.SetHidden("model2", true)
	require.NoError(t, err)
	_, err = c.BeginDrag("model1", pointerAt(-2, 0))
	require.NoError(t, err)

	s := c.SceneStats()
	require.Equal(t, 1, s.Visible)
	require.Equal(t, 1, s.Hidden)
	require.Equal(t, 1, s.MissingGeometry)
	require.True(t, s.Dragging)

	c.EndDrag()
	require.False(t, c.SceneStats().Dragging)
}
