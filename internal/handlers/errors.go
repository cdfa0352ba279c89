package handlers

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"scene-service/internal/scene"
	"scene-service/internal/services"
)

const (
	InvalidBodyError    = "invalid request body"
	ModelNotFoundError  = "model not found"
	AssetNotFoundError  = "asset not found"
	UploadDisabledError = "uploads are not configured"
)

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": true, "message": message,
	})
}

// sceneError maps scene errors to HTTP responses.
func sceneError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scene.ErrModelNotFound):
		return errorResponse(c, fiber.StatusNotFound, ModelNotFoundError)
	case errors.Is(err, scene.ErrDragInProgress), errors.Is(err, scene.ErrNotDragging):
		return errorResponse(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, scene.ErrNoGroundHit):
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrAssetNotFound):
		return errorResponse(c, fiber.StatusNotFound, AssetNotFoundError)
	default:
		logs.WithTag("method", c.Method()).
			WithTag("path", c.Path()).
			Error(err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
}
