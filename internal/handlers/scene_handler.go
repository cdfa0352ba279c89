package handlers

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gofiber/fiber/v2"

	"scene-service/internal/geometry"
	"scene-service/internal/models"
	"scene-service/internal/scene"
)

// SceneHandler exposes the placed models of the scene.
type SceneHandler struct {
	Scene *scene.SceneController
}

func NewSceneHandler(controller *scene.SceneController) *SceneHandler {
	return &SceneHandler{Scene: controller}
}

// ListModels handles GET /models.
// @Summary List placed models
// @Description Gets every model placed in the scene, hidden ones included
// @Tags models
// @Produce json
// @Success 200 {array} models.PlacedModel "Placed models"
// @Router /models [get]
func (h *SceneHandler) ListModels(c *fiber.Ctx) error {
	return c.JSON(h.Scene.Models())
}

// GetModel handles GET /models/:id.
// @Summary Get a placed model
// @Tags models
// @Produce json
// @Param id path string true "Model ID"
// @Success 200 {object} models.PlacedModel "Model found"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /models/{id} [get]
func (h *SceneHandler) GetModel(c *fiber.Ctx) error {
	m, err := h.Scene.Model(c.Params("id"))
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(m)
}

// DeleteModel handles DELETE /models/:id.
// @Summary Delete a placed model
// @Description Removes the model from the scene and from the store
// @Tags models
// @Param id path string true "Model ID"
// @Success 204 "Model deleted"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Failure 500 {object} map[string]interface{} "Store error"
// @Router /models/{id} [delete]
func (h *SceneHandler) DeleteModel(c *fiber.Ctx) error {
	if err := h.Scene.Delete(c.UserContext(), c.Params("id")); err != nil {
		return sceneError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetRotation handles PUT /models/:id/rotation.
// @Summary Rotate a model
// @Description Sets the Euler rotation in radians, each angle wrapped into [0, 2π)
// @Tags models
// @Accept json
// @Produce json
// @Param id path string true "Model ID"
// @Param request body models.RotationRequest true "Euler angles"
// @Success 200 {object} models.PlacedModel "Rotated model"
// @Failure 400 {object} map[string]interface{} "Invalid body"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /models/{id}/rotation [put]
func (h *SceneHandler) SetRotation(c *fiber.Ctx) error {
	var req models.RotationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, InvalidBodyError)
	}

	m, err := h.Scene.SetRotation(c.Params("id"), mgl64.Vec3{req.X, req.Y, req.Z})
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(m)
}

// SetHidden handles PUT /models/:id/hidden.
// @Summary Hide or show a model
// @Description Hidden models stay in the scene but never block other models
// @Tags models
// @Accept json
// @Produce json
// @Param id path string true "Model ID"
// @Param request body models.HiddenRequest true "Visibility"
// @Success 200 {object} models.PlacedModel "Updated model"
// @Failure 400 {object} map[string]interface{} "Invalid body"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /models/{id}/hidden [put]
func (h *SceneHandler) SetHidden(c *fiber.Ctx) error {
	var req models.HiddenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, InvalidBodyError)
	}

	m, err := h.Scene.SetHidden(c.Params("id"), req.Hidden)
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(m)
}

// SetBounds handles PUT /models/:id/bounds.
// @Summary Report model geometry bounds
// @Description Sets the local-space box of the model body used for collision checks
// @Tags models
// @Accept json
// @Param id path string true "Model ID"
// @Param request body models.Bounds true "Local bounds"
// @Success 204 "Bounds recorded"
// @Failure 400 {object} map[string]interface{} "Invalid bounds"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /models/{id}/bounds [put]
func (h *SceneHandler) SetBounds(c *fiber.Ctx) error {
	var req models.Bounds
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, InvalidBodyError)
	}

	box := geometry.AABB{Min: req.Min.Vec3(), Max: req.Max.Vec3()}
	if !box.Valid() {
		return errorResponse(c, fiber.StatusBadRequest, "bounds min must not exceed max")
	}
	if err := h.Scene.SetGeometryBounds(c.Params("id"), box); err != nil {
		return sceneError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PreviewPlacement handles GET /placement/preview.
// @Summary Preview the next placement
// @Description Returns where the next uploaded model would be placed
// @Tags placement
// @Produce json
// @Success 200 {object} models.PlacementResponse "Next placement"
// @Router /placement/preview [get]
func (h *SceneHandler) PreviewPlacement(c *fiber.Ctx) error {
	return c.JSON(placementResponse(h.Scene.PreviewPlacement()))
}

func placementResponse(p scene.Placement) models.PlacementResponse {
	return models.PlacementResponse{
		Position: models.NewVector3(p.Position),
		Attempts: p.Attempts,
		Found:    p.Found,
	}
}
