package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
)

// DefaultCollisionMargin is how far every box is grown before testing.
const DefaultCollisionMargin = 0.5

// Collider computes expanded world boxes for registry nodes.
type Collider struct {
	registry *Registry
	margin   float64
}

func NewCollider(registry *Registry, margin float64) *Collider {
	return &Collider{registry: registry, margin: margin}
}

// BoundsOf returns the expanded world box of the model at its current
// transform. It reports false when the model is unknown or its geometry has
// not been resolved yet.
func (c *Collider) BoundsOf(id string) (geometry.AABB, bool) {
	n, ok := c.registry.Get(id)
	if !ok {
		return geometry.AABB{}, false
	}
	return c.nodeBounds(n)
}

func (c *Collider) nodeBounds(n *Node) (geometry.AABB, bool) {
	if n.Geometry == nil {
		return geometry.AABB{}, false
	}
	world := geometry.WorldBounds(*n.Geometry, n.Model.Position.Vec3(), n.Model.Rotation.Vec3())
	return world.Expand(c.margin), true
}

// BoundsAt measures the model as if it stood at candidate: the position is
// applied, the box recomputed and the original position restored before
// returning. Callers hold the scene lock, so no reader sees the moved node.
func (c *Collider) BoundsAt(id string, candidate mgl64.Vec3) (geometry.AABB, bool) {
	n, ok := c.registry.Get(id)
	if !ok {
		return geometry.AABB{}, false
	}

	original := n.Model.Position
	n.Model.Position = models.NewVector3(candidate)
	defer func() { n.Model.Position = original }()

	return c.nodeBounds(n)
}

// FindBlocker returns the first visible model other than id whose expanded
// box intersects box.
func (c *Collider) FindBlocker(id string, box geometry.AABB) (string, bool) {
	for _, other := range c.registry.Nodes() {
		if other.Model.ID == id || other.Model.Hidden {
			continue
		}
		otherBox, ok := c.nodeBounds(other)
		if !ok {
			continue
		}
		if box.Intersects(otherBox) {
			return other.Model.ID, true
		}
	}
	return "", false
}
