package handlers

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/gofiber/fiber/v2"

	"scene-service/internal/services"
	"scene-service/internal/services/cache"
)

// CacheHandler manages the asset download cache.
type CacheHandler struct {
	Assets *services.AssetService
	Cache  *cache.Chain
}

func NewCacheHandler(assets *services.AssetService, downloads *cache.Chain) *CacheHandler {
	return &CacheHandler{Assets: assets, Cache: downloads}
}

// PreloadRequest lists stored asset filenames to load into the cache.
type PreloadRequest struct {
	Filenames []string `json:"filenames"`
}

// Preload handles POST /cache/preload.
// @Summary Preload assets into cache
// @Description Loads stored assets into every cache layer ahead of the viewers requesting them
// @Tags cache
// @Accept json
// @Produce json
// @Param request body PreloadRequest true "Filenames to preload"
// @Success 200 {object} metrics.PreloadReport "All assets preloaded"
// @Success 207 {object} metrics.PreloadReport "Some assets failed to preload"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /cache/preload [post]
func (h *CacheHandler) Preload(c *fiber.Ctx) error {
	var req PreloadRequest
	if err := c.BodyParser(&req); err != nil || len(req.Filenames) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "no filenames provided")
	}

	report := h.Assets.Preload(c.UserContext(), req.Filenames)
	logs.WithTag("failed", len(report.Failed)).Info(report.Summary())

	status := fiber.StatusOK
	if !report.Complete() {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(report)
}

// Stats handles GET /cache/stats.
// @Summary Asset cache statistics
// @Tags cache
// @Produce json
// @Success 200 {array} cache.LayerStats "Per layer statistics"
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	if h.Cache == nil {
		return c.JSON([]cache.LayerStats{})
	}
	return c.JSON(h.Cache.Stats())
}

// Invalidate handles DELETE /cache/:filename.
// @Summary Invalidate a cached asset
// @Description Removes the asset from every cache layer; the stored file is kept
// @Tags cache
// @Param filename path string true "Stored filename"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{} "Invalid filename"
// @Router /cache/{filename} [delete]
func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	if err := h.Assets.Invalidate(c.UserContext(), c.Params("filename")); err != nil {
		return sceneError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
