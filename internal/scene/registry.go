// Package scene implements the spatial engine of a shared ground-plane scene:
// the registry of live models, the collision box utility, the drag resolver
// and the placement finder, all driven by a SceneController.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrDuplicateID   = errors.New("model id already in use")
)

// Node is the live state of one placed model.
type Node struct {
	Model models.PlacedModel

	// Geometry is the local-space box of the model body, drag handle
	// excluded. It is nil until the renderer or the asset reports it.
	Geometry *geometry.AABB
}

// Registry maps model ids to live nodes. Iteration follows insertion order so
// collision checks and placement are deterministic. A Registry is not safe
// for concurrent use; the SceneController serializes access.
type Registry struct {
	nodes map[string]*Node
	order []string
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// Insert adds a model. Ids are never shared between two live nodes.
func (r *Registry) Insert(m models.PlacedModel, local *geometry.AABB) (*Node, error) {
	if _, ok := r.nodes[m.ID]; ok {
		return nil, errors.Wrap(ErrDuplicateID, m.ID)
	}

	n := &Node{Model: m, Geometry: local}
	r.nodes[m.ID] = n
	r.order = append(r.order, m.ID)
	return n, nil
}

// Remove deletes the node and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.nodes[id]; !ok {
		return false
	}
	delete(r.nodes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

func (r *Registry) Len() int {
	return len(r.nodes)
}

// Nodes returns the live nodes in insertion order.
func (r *Registry) Nodes() []*Node {
	nodes := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		nodes = append(nodes, r.nodes[id])
	}
	return nodes
}

// Models returns a copy of every model record in insertion order.
func (r *Registry) Models() []models.PlacedModel {
	list := make([]models.PlacedModel, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.nodes[id].Model)
	}
	return list
}

// VisiblePositions returns the centers of all non-hidden models.
func (r *Registry) VisiblePositions() []mgl64.Vec3 {
	var positions []mgl64.Vec3
	for _, id := range r.order {
		n := r.nodes[id]
		if n.Model.Hidden {
			continue
		}
		positions = append(positions, n.Model.Position.Vec3())
	}
	return positions
}

// Reset drops every node.
func (r *Registry) Reset() {
	r.nodes = make(map[string]*Node)
	r.order = nil
}
