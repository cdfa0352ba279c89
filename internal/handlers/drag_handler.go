package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
	"scene-service/internal/scene"
)

// DragHandler forwards pointer events of the viewer to the drag resolver.
type DragHandler struct {
	Scene *scene.SceneController
}

func NewDragHandler(controller *scene.SceneController) *DragHandler {
	return &DragHandler{Scene: controller}
}

func toRay(r models.RayRequest) geometry.Ray {
	return geometry.Ray{Origin: r.Origin.Vec3(), Direction: r.Direction.Vec3()}
}

// Start handles POST /drag/start.
// @Summary Start dragging a model
// @Tags drag
// @Accept json
// @Produce json
// @Param request body models.DragStartRequest true "Model and pointer ray"
// @Success 200 {object} models.PlacedModel "Dragged model"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Failure 409 {object} map[string]interface{} "Another drag is in progress"
// @Failure 422 {object} map[string]interface{} "Ray misses the ground"
// @Router /drag/start [post]
func (h *DragHandler) Start(c *fiber.Ctx) error {
	var req models.DragStartRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return errorResponse(c, fiber.StatusBadRequest, InvalidBodyError)
	}

	m, err := h.Scene.BeginDrag(req.ID, toRay(req.Ray))
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(m)
}

// Move handles POST /drag/move.
// @Summary Move the dragged model
// @Description Moves the model under the pointer unless it would overlap another visible model
// @Tags drag
// @Accept json
// @Produce json
// @Param request body models.DragMoveRequest true "Pointer ray"
// @Success 200 {object} models.MoveResponse "Move outcome"
// @Failure 409 {object} map[string]interface{} "No drag in progress"
// @Router /drag/move [post]
func (h *DragHandler) Move(c *fiber.Ctx) error {
	var req models.DragMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, InvalidBodyError)
	}

	res, err := h.Scene.DragMove(toRay(req.Ray))
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(models.MoveResponse{
		ID:        res.ID,
		Accepted:  res.Accepted,
		Position:  models.NewVector3(res.Position),
		BlockedBy: res.BlockedBy,
	})
}

// End handles POST /drag/end. Repeated calls are harmless.
// @Summary End the current drag
// @Description Commits the dragged model position; a second call is a no-op
// @Tags drag
// @Produce json
// @Success 200 {object} models.DragEndResponse "Commit outcome"
// @Router /drag/end [post]
func (h *DragHandler) End(c *fiber.Ctx) error {
	m, ok := h.Scene.EndDrag()
	if !ok {
		return c.JSON(models.DragEndResponse{})
	}
	return c.JSON(models.DragEndResponse{Committed: true, Model: &m})
}
