package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"scene-service/internal/geometry"
	"scene-service/internal/metrics"
	"scene-service/internal/models"
)

var (
	ErrDragInProgress = errors.New("another drag is in progress")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrNoGroundHit    = errors.New("pointer ray does not hit the ground plane")
)

type DragState int

const (
	Idle DragState = iota
	Dragging
	Committing
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// MoveResult describes what happened to one pointer move.
type MoveResult struct {
	ID       string     `json:"id"`
	Accepted bool       `json:"accepted"`
	Position mgl64.Vec3 `json:"-"`

	// BlockedBy names the model that refused the move.
	BlockedBy string `json:"blockedBy,omitempty"`
}

// DragResolver turns pointer rays into ground-plane moves of a single model
// at a time, refusing moves that would overlap another visible model.
type DragResolver struct {
	registry *Registry
	collider *Collider

	state    DragState
	activeID string
	offset   mgl64.Vec3

	// OnPositionChange is called for every accepted move.
	OnPositionChange func(id string, position mgl64.Vec3)

	// OnCommit is called exactly once when a drag ends, with the final record.
	OnCommit func(m models.PlacedModel)
}

func NewDragResolver(registry *Registry, collider *Collider) *DragResolver {
	return &DragResolver{registry: registry, collider: collider}
}

func (d *DragResolver) State() DragState {
	return d.state
}

// ActiveID returns the id of the model being dragged, if any.
func (d *DragResolver) ActiveID() string {
	return d.activeID
}

// PointerDown starts dragging id. The offset between the ground hit and the
// model position is kept so the model does not jump under the pointer.
func (d *DragResolver) PointerDown(id string, ray geometry.Ray) error {
	if d.state != Idle {
		return ErrDragInProgress
	}
	n, ok := d.registry.Get(id)
	if !ok {
		return errors.Wrap(ErrModelNotFound, id)
	}
	hit, ok := ray.IntersectGround()
	if !ok {
		return ErrNoGroundHit
	}

	d.offset = hit.Sub(n.Model.Position.Vec3())
	d.activeID = id
	d.state = Dragging
	return nil
}

// PointerMove proposes a new position for the dragged model. Rejected moves
// leave the model untouched and fire no callback.
func (d *DragResolver) PointerMove(ray geometry.Ray) (MoveResult, error) {
	if d.state != Dragging {
		return MoveResult{}, ErrNotDragging
	}
	n, ok := d.registry.Get(d.activeID)
	if !ok {
		return MoveResult{}, errors.Wrap(ErrModelNotFound, d.activeID)
	}

	current := n.Model.Position.Vec3()
	res := MoveResult{ID: d.activeID, Position: current}

	hit, ok := ray.IntersectGround()
	if !ok {
		return res, ErrNoGroundHit
	}

	candidate := mgl64.Vec3{
		hit.X() - d.offset.X(),
		current.Y(),
		hit.Z() - d.offset.Z(),
	}

	// Hidden models neither block nor get blocked.
	if !n.Model.Hidden {
		if box, ok := d.collider.BoundsAt(d.activeID, candidate); ok {
			if blocker, blocked := d.collider.FindBlocker(d.activeID, box); blocked {
				res.BlockedBy = blocker
				metrics.RecordDragMove(false)
				return res, nil
			}
		}
	}

	n.Model.Position = models.NewVector3(candidate)
	res.Accepted = true
	res.Position = candidate
	metrics.RecordDragMove(true)

	if d.OnPositionChange != nil {
		d.OnPositionChange(d.activeID, candidate)
	}
	return res, nil
}

// PointerUp ends the drag and hands the final record to OnCommit. Only the
// first pointer-up of a drag does anything; later ones return false.
func (d *DragResolver) PointerUp() (models.PlacedModel, bool) {
	if d.state != Dragging {
		return models.PlacedModel{}, false
	}

	d.state = Committing
	defer d.reset()

	n, ok := d.registry.Get(d.activeID)
	if !ok {
		return models.PlacedModel{}, false
	}
	if d.OnCommit != nil {
		d.OnCommit(n.Model)
	}
	metrics.RecordDragCommit()
	return n.Model, true
}

// Forget abandons the drag when its model is removed from the scene.
func (d *DragResolver) Forget(id string) {
	if d.activeID == id {
		d.reset()
	}
}

func (d *DragResolver) reset() {
	d.state = Idle
	d.activeID = ""
	d.offset = mgl64.Vec3{}
}
