package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
)

var unitBox = geometry.AABB{Min: mgl64.Vec3{-0.5, 0, -0.5}, Max: mgl64.Vec3{0.5, 1, 0.5}}

// pointerAt returns a ray looking straight down onto the ground at (x, z).
func pointerAt(x, z float64) geometry.Ray {
	return geometry.Ray{Origin: mgl64.Vec3{x, 10, z}, Direction: mgl64.Vec3{0, -1, 0}}
}

func newTestScene(t *testing.T, list ...models.PlacedModel) (*Registry, *DragResolver) {
	registry := NewRegistry()
	for _, m := range list {
		box := unitBox
		_, err := registry.Insert(m, &box)
		require.NoError(t, err)
	}
	return registry, NewDragResolver(registry, NewCollider(registry, DefaultCollisionMargin))
}

func placed(id string, x, z float64) models.PlacedModel {
	return models.PlacedModel{ID: id, Position: models.Vector3{X: x, Z: z}, AssetPath: "/models/" + id + ".glb"}
}

func TestDragFreezesAtLastAcceptedPosition(t *testing.T) {
	registry, drag := newTestScene(t, placed("a", 0, 0), placed("b", 4, 0))

	var changes []mgl64.Vec3
	drag.OnPositionChange = func(id string, pos mgl64.Vec3) {
		require.Equal(t, "a", id)
		changes = append(changes, pos)
	}

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))

	for _, x := range []float64{1, 1.9, 2.5, 3, 3.5} {
		_, err := drag.PointerMove(pointerAt(x, 0))
		require.NoError(t, err)
	}

	require.Len(t, changes, 2)
	a, _ := registry.Get("a")
	require.Equal(t, models.Vector3{X: 1.9}, a.Model.Position)

	res, err := drag.PointerMove(pointerAt(2.5, 0))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "b", res.BlockedBy)
	require.Equal(t, mgl64.Vec3{1.9, 0, 0}, res.Position)
}

func TestDragHidingBlockerUnblocksNextMove(t *testing.T) {
	registry, drag := newTestScene(t, placed("a", 0, 0), placed("b", 4, 0))

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	res, err := drag.PointerMove(pointerAt(3, 0))
	require.NoError(t, err)
	require.False(t, res.Accepted)

	b, _ := registry.Get("b")
	b.Model.Hidden = true

	res, err = drag.PointerMove(pointerAt(3, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, mgl64.Vec3{3, 0, 0}, res.Position)
}

func TestDragHiddenModelIsNeverBlocked(t *testing.T) {
	registry, drag := newTestScene(t, placed("a", 0, 0), placed("b", 4, 0))
	a, _ := registry.Get("a")
	a.Model.Hidden = true

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	res, err := drag.PointerMove(pointerAt(4, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestDragKeepsPointerOffset(t *testing.T) {
	registry, drag := newTestScene(t, placed("a", 0, 0))
	a, _ := registry.Get("a")
	a.Model.Position.Y = 0.25

	require.NoError(t, drag.PointerDown("a", pointerAt(0.3, 0.2)))
	res, err := drag.PointerMove(pointerAt(1.3, 0.2))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.InDelta(t, 1, res.Position.X(), 1e-9)
	require.InDelta(t, 0.25, res.Position.Y(), 1e-9)
	require.InDelta(t, 0, res.Position.Z(), 1e-9)
}

func TestDragWithoutGeometryIsNotBlocked(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Insert(placed("a", 0, 0), nil)
	require.NoError(t, err)
	box := unitBox
	_, err = registry.Insert(placed("b", 4, 0), &box)
	require.NoError(t, err)
	drag := NewDragResolver(registry, NewCollider(registry, DefaultCollisionMargin))

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	res, err := drag.PointerMove(pointerAt(4, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestDragPointerUpCommitsOnce(t *testing.T) {
	_, drag := newTestScene(t, placed("a", 0, 0))

	var commits []models.PlacedModel
	drag.OnCommit = func(m models.PlacedModel) {
		commits = append(commits, m)
	}

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	_, err := drag.PointerMove(pointerAt(2, 1))
	require.NoError(t, err)

	m, ok := drag.PointerUp()
	require.True(t, ok)
	require.Equal(t, models.Vector3{X: 2, Z: 1}, m.Position)

	_, ok = drag.PointerUp()
	require.False(t, ok)
	require.Len(t, commits, 1)
	require.Equal(t, Idle, drag.State())
}

func TestDragWithoutMovementStillCommits(t *testing.T) {
	_, drag := newTestScene(t, placed("a", 1, 1))

	var commits int
	drag.OnCommit = func(models.PlacedModel) { commits++ }

	require.NoError(t, drag.PointerDown("a", pointerAt(1, 1)))
	m, ok := drag.PointerUp()
	require.True(t, ok)
	require.Equal(t, models.Vector3{X: 1, Z: 1}, m.Position)
	require.Equal(t, 1, commits)
}

func TestDragStateErrors(t *testing.T) {
	_, drag := newTestScene(t, placed("a", 0, 0), placed("b", 4, 0))

	_, err := drag.PointerMove(pointerAt(1, 0))
	require.ErrorIs(t, err, ErrNotDragging)

	require.ErrorIs(t, drag.PointerDown("missing", pointerAt(0, 0)), ErrModelNotFound)

	skyward := geometry.Ray{Origin: mgl64.Vec3{0, 10, 0}, Direction: mgl64.Vec3{0, 1, 0}}
	require.ErrorIs(t, drag.PointerDown("a", skyward), ErrNoGroundHit)
	require.Equal(t, Idle, drag.State())

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	require.ErrorIs(t, drag.PointerDown("b", pointerAt(4, 0)), ErrDragInProgress)
	require.Equal(t, "a", drag.ActiveID())

	_, err = drag.PointerMove(skyward)
	require.ErrorIs(t, err, ErrNoGroundHit)
	require.Equal(t, Dragging, drag.State())
}

func TestCollisionBoundsAtRestoresPosition(t *testing.T) {
	registry, _ := newTestScene(t, placed("a", 0, 0))
	collider := NewCollider(registry, DefaultCollisionMargin)

	box, ok := collider.BoundsAt("a", mgl64.Vec3{10, 0, 0})
	require.True(t, ok)
	require.Equal(t, mgl64.Vec3{9, -0.5, -1}, box.Min)
	require.Equal(t, mgl64.Vec3{11, 1.5, 1}, box.Max)

	a, _ := registry.Get("a")
	require.Equal(t, models.Vector3{}, a.Model.Position)

	current, ok := collider.BoundsOf("a")
	require.True(t, ok)
	require.Equal(t, mgl64.Vec3{-1, -0.5, -1}, current.Min)

	_, ok = collider.BoundsOf("missing")
	require.False(t, ok)
}

func TestCommittedPositionsNeverOverlap(t *testing.T) {
	registry, drag := newTestScene(t, placed("a", 0, 0), placed("b", 4, 0), placed("c", 0, 4))
	collider := NewCollider(registry, DefaultCollisionMargin)

	require.NoError(t, drag.PointerDown("a", pointerAt(0, 0)))
	for i := 0; i <= 40; i++ {
		step := float64(i) * 0.1
		_, err := drag.PointerMove(pointerAt(step, step))
		require.NoError(t, err)

		box, ok := collider.BoundsOf("a")
		require.True(t, ok)
		_, blocked := collider.FindBlocker("a", box)
		require.False(t, blocked)
	}
	_, ok := drag.PointerUp()
	require.True(t, ok)
}
