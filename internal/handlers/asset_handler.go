package handlers

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"scene-service/internal/models"
	"scene-service/internal/scene"
	"scene-service/internal/services"
)

// AssetHandler accepts model uploads and serves stored assets.
type AssetHandler struct {
	Assets *services.AssetService
	Scene  *scene.SceneController
}

func NewAssetHandler(assets *services.AssetService, controller *scene.SceneController) *AssetHandler {
	return &AssetHandler{Assets: assets, Scene: controller}
}

// Upload handles POST /upload.
// @Summary Upload a model
// @Description Stores a GLB file and places a new model for it in free space
// @Tags assets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "GLB file"
// @Success 201 {object} models.UploadResponse "Model placed"
// @Failure 400 {object} map[string]interface{} "Upload rejected"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /upload [post]
func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	if h.Assets == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, UploadDisabledError)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "No file provided", "reason": services.ReasonMissingFile,
		})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "could not open uploaded file")
	}
	defer file.Close()

	ctx := c.UserContext()
	asset, bounds, err := h.Assets.Upload(ctx, fileHeader.Filename, file, fileHeader.Size)
	var uerr *services.UploadError
	if errors.As(err, &uerr) {
		logs.WithTag("filename", fileHeader.Filename).
			WithTag("reason", uerr.Reason).
			Info("upload rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": uerr.Message, "reason": uerr.Reason,
		})
	}
	if err != nil {
		return sceneError(c, err)
	}

	m, p, err := h.Scene.CreateModel(ctx, asset.PublicPath, bounds)
	if err != nil {
		h.Assets.Discard(ctx, asset)
		return sceneError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		Success:     true,
		DownloadURL: asset.PublicPath,
		Filename:    asset.Filename,
		Asset:       *asset,
		Model:       m,
		Placement:   placementResponse(p),
	})
}

// Download handles GET /models/:filename. The route is mounted at the root,
// outside the /api/scene swagger document.
func (h *AssetHandler) Download(c *fiber.Ctx) error {
	if h.Assets == nil {
		return errorResponse(c, fiber.StatusNotFound, AssetNotFoundError)
	}

	data, err := h.Assets.Download(c.UserContext(), c.Params("filename"))
	if err != nil {
		return sceneError(c, err)
	}

	c.Set(fiber.HeaderContentType, "model/gltf-binary")
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Status(fiber.StatusOK).Send(data)
}
