package models

// RayRequest is a pointer ray in world space, as cast by the viewer.
type RayRequest struct {
	Origin    Vector3 `json:"origin"`
	Direction Vector3 `json:"direction"`
}

// DragStartRequest starts dragging a model.
type DragStartRequest struct {
	ID  string     `json:"id"`
	Ray RayRequest `json:"ray"`
}

// DragMoveRequest carries the pointer ray of one pointer move.
type DragMoveRequest struct {
	Ray RayRequest `json:"ray"`
}

// MoveResponse reports the outcome of a pointer move.
type MoveResponse struct {
	ID        string  `json:"id"`
	Accepted  bool    `json:"accepted"`
	Position  Vector3 `json:"position"`
	BlockedBy string  `json:"blockedBy,omitempty"`
}

// DragEndResponse reports the model committed by a pointer-up.
type DragEndResponse struct {
	Committed bool         `json:"committed"`
	Model     *PlacedModel `json:"model,omitempty"`
}

type RotationRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type HiddenRequest struct {
	Hidden bool `json:"hidden"`
}

// PlacementResponse describes where a new model is or would be placed.
type PlacementResponse struct {
	Position Vector3 `json:"position"`
	Attempts int     `json:"attempts"`

	// Found is false when no free slot was found and the position overlaps
	// existing models.
	Found bool `json:"found"`
}

// UploadResponse is returned once an uploaded asset has been placed.
type UploadResponse struct {
	Success     bool              `json:"success"`
	DownloadURL string            `json:"downloadURL"`
	Filename    string            `json:"filename"`
	Asset       Asset             `json:"asset"`
	Model       PlacedModel       `json:"model"`
	Placement   PlacementResponse `json:"placement"`
}
