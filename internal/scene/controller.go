package scene

import (
	"context"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"scene-service/internal/geometry"
	"scene-service/internal/metrics"
	"scene-service/internal/models"
	"scene-service/internal/repository"
)

// Persister writes scene changes to the backing store. Operations for one
// model reach the store in the order they were scheduled.
type Persister interface {
	// Enqueue schedules a write without waiting for it. A newer write for the
	// same model replaces one that has not started yet.
	Enqueue(m models.PlacedModel)
	// Schedule queues a write of m and returns a function that waits for its
	// outcome.
	Schedule(m models.PlacedModel) func(ctx context.Context) error
	// ScheduleDelete queues the removal of id and returns a function that
	// waits for its outcome.
	ScheduleDelete(id string) func(ctx context.Context) error
}

// BoundsResolver looks up the local geometry bounds of an uploaded asset.
type BoundsResolver interface {
	LocalBounds(ctx context.Context, assetPath string) (*geometry.AABB, error)
}

// Options configure a SceneController.
type Options struct {
	CollisionMargin float64
	Placement       PlacementConfig

	// Defaults is the scene used when the store is empty or unreadable.
	Defaults []models.PlacedModel

	// Bounds resolves geometry of assets on load. Optional.
	Bounds BoundsResolver

	// NewID generates ids for created models. Defaults to random UUIDs.
	NewID func() string
}

func DefaultOptions() Options {
	return Options{
		CollisionMargin: DefaultCollisionMargin,
		Placement:       DefaultPlacementConfig(),
		Defaults:        models.DefaultModels(),
	}
}

// SceneController owns the live scene. Every operation runs under a single
// lock, which makes each call one atomic tick of the scene. Store round trips
// are awaited outside the lock.
type SceneController struct {
	mu        sync.Mutex
	registry  *Registry
	collider  *Collider
	drag      *DragResolver
	store     repository.PlacedModelRepository
	persister Persister
	opts      Options
}

func NewSceneController(store repository.PlacedModelRepository, persister Persister, opts Options) *SceneController {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	registry := NewRegistry()
	collider := NewCollider(registry, opts.CollisionMargin)
	drag := NewDragResolver(registry, collider)
	drag.OnCommit = persister.Enqueue

	return &SceneController{
		registry:  registry,
		collider:  collider,
		drag:      drag,
		store:     store,
		persister: persister,
		opts:      opts,
	}
}

// OnPositionChange registers the callback fired for each accepted drag move.
func (c *SceneController) OnPositionChange(fn func(id string, position mgl64.Vec3)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drag.OnPositionChange = fn
}

// Load replaces the live scene with the stored one. An empty store is seeded
// with the default models; an unreadable store falls back to the defaults in
// memory only, so the scene is never empty.
func (c *SceneController) Load(ctx context.Context) error {
	list, err := c.store.ListAll(ctx)
	switch {
	case err != nil:
		logs.Warn(errors.Wrap(err, "loading scene failed, using default models"))
		list = c.defaults()

	case len(list) == 0:
		list = c.defaults()
		for _, m := range list {
			if err := c.persister.Schedule(m)(ctx); err != nil {
				logs.WithTag("model_id", m.ID).Warn(errors.Wrap(err, "seeding default model failed"))
			}
		}
	}

	geometries := make(map[string]*geometry.AABB, len(list))
	if c.opts.Bounds != nil {
		for _, m := range list {
			box, err := c.opts.Bounds.LocalBounds(ctx, m.AssetPath)
			if err != nil {
				logs.WithTag("model_id", m.ID).
					WithTag("asset_path", m.AssetPath).
					Debug(err)
				continue
			}
			geometries[m.ID] = box
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.drag.reset()
	c.registry.Reset()
	for _, m := range list {
		m.Rotation = models.NewVector3(geometry.WrapEuler(m.Rotation.Vec3()))
		if _, err := c.registry.Insert(m, geometries[m.ID]); err != nil {
			return err
		}
	}

	logs.WithTag("models", c.registry.Len()).Info("scene loaded")
	return nil
}

func (c *SceneController) defaults() []models.PlacedModel {
	list := make([]models.PlacedModel, len(c.opts.Defaults))
	copy(list, c.opts.Defaults)
	return list
}

// Models returns every model in the scene.
func (c *SceneController) Models() []models.PlacedModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Models()
}

func (c *SceneController) Model(id string) (models.PlacedModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.registry.Get(id)
	if !ok {
		return models.PlacedModel{}, errors.Wrap(ErrModelNotFound, id)
	}
	return n.Model, nil
}

// BoundsOf returns the expanded world box of a model, false while its
// geometry is unknown.
func (c *SceneController) BoundsOf(id string) (geometry.AABB, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collider.BoundsOf(id)
}

// PreviewPlacement returns where a model created now would be placed.
func (c *SceneController) PreviewPlacement() Placement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FindFreeSlot(c.opts.Placement, c.registry.VisiblePositions())
}

// CreateModel places a new model for assetPath in free space, adds it to the
// scene and waits for it to be persisted. A failed write is logged; the model
// is kept in memory.
func (c *SceneController) CreateModel(ctx context.Context, assetPath string, local *geometry.AABB) (models.PlacedModel, Placement, error) {
	c.mu.Lock()

	p := FindFreeSlot(c.opts.Placement, c.registry.VisiblePositions())
	m := models.PlacedModel{
		ID:        c.opts.NewID(),
		Position:  models.NewVector3(p.Position),
		AssetPath: assetPath,
	}
	if _, err := c.registry.Insert(m, local); err != nil {
		c.mu.Unlock()
		return models.PlacedModel{}, p, err
	}
	wait := c.persister.Schedule(m)
	c.mu.Unlock()

	metrics.RecordPlacement(p.Attempts, p.Found)
	if !p.Found {
		logs.WithTag("asset_path", assetPath).
			WithTag("attempts", p.Attempts).
			Warn(errors.New("no free slot found, placing model over occupied space"))
	}
	if err := wait(ctx); err != nil {
		logs.WithTag("model_id", m.ID).Warn(errors.Wrap(err, "persisting new model failed"))
	}

	logs.WithTag("model_id", m.ID).
		WithTag("asset_path", assetPath).
		WithTag("attempts", p.Attempts).
		Info("model placed")
	return m, p, nil
}

// Delete removes the model from the scene and waits for the store to drop it.
// The model is put back when the store refuses the delete. When ctx ends
// first the delete stays queued and the model stays out of the scene.
func (c *SceneController) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	n, ok := c.registry.Get(id)
	if !ok {
		c.mu.Unlock()
		return errors.Wrap(ErrModelNotFound, id)
	}
	removed := *n
	c.drag.Forget(id)
	c.registry.Remove(id)
	wait := c.persister.ScheduleDelete(id)
	c.mu.Unlock()

	err := wait(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil {
		c.mu.Lock()
		if _, ierr := c.registry.Insert(removed.Model, removed.Geometry); ierr != nil {
			logs.WithTag("model_id", id).Warn(ierr)
		}
		c.mu.Unlock()
	}
	return errors.Wrapf(err, "deleting model %s failed", id)
}

// SetHidden shows or hides a model. The change applies to the next collision
// check and is persisted in the background.
func (c *SceneController) SetHidden(id string, hidden bool) (models.PlacedModel, error) {
	return c.update(id, func(n *Node) {
		n.Model.Hidden = hidden
	})
}

// SetRotation sets the Euler rotation of a model, each angle wrapped into
// [0, 2π), and persists it in the background.
func (c *SceneController) SetRotation(id string, rotation mgl64.Vec3) (models.PlacedModel, error) {
	return c.update(id, func(n *Node) {
		n.Model.Rotation = models.NewVector3(geometry.WrapEuler(rotation))
	})
}

func (c *SceneController) update(id string, fn func(n *Node)) (models.PlacedModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.registry.Get(id)
	if !ok {
		return models.PlacedModel{}, errors.Wrap(ErrModelNotFound, id)
	}
	fn(n)
	c.persister.Enqueue(n.Model)
	return n.Model, nil
}

// SetGeometryBounds records the local-space bounds of a model body as
// measured by the renderer.
func (c *SceneController) SetGeometryBounds(id string, local geometry.AABB) error {
	if !local.Valid() {
		return errors.New("bounds min must not exceed max")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.registry.Get(id)
	if !ok {
		return errors.Wrap(ErrModelNotFound, id)
	}
	n.Geometry = &local
	return nil
}

// BeginDrag starts dragging a model from the given pointer ray.
func (c *SceneController) BeginDrag(id string, ray geometry.Ray) (models.PlacedModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.drag.PointerDown(id, ray); err != nil {
		return models.PlacedModel{}, err
	}
	n, _ := c.registry.Get(id)
	return n.Model, nil
}

// DragMove moves the dragged model toward the pointer ray unless the new
// position collides.
func (c *SceneController) DragMove(ray geometry.Ray) (MoveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.PointerMove(ray)
}

// EndDrag finishes the current drag and queues its persistence. It returns
// false when no drag was active, which makes repeated pointer-ups harmless.
func (c *SceneController) EndDrag() (models.PlacedModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.PointerUp()
}

// DragState reports the resolver state and the dragged model id.
func (c *SceneController) DragState() (DragState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.State(), c.drag.ActiveID()
}

// SceneStats counts the models of the scene for metrics scrapes.
func (c *SceneController) SceneStats() metrics.SceneStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s metrics.SceneStats
	for _, n := range c.registry.Nodes() {
		if n.Model.Hidden {
			s.Hidden++
		} else {
			s.Visible++
		}
		if n.Geometry == nil {
			s.MissingGeometry++
		}
	}
	s.Dragging = c.drag.State() == Dragging
	return s
}
