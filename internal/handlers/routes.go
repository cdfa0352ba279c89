package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the scene API under /api/scene and the public asset
// path under /models.
func RegisterRoutes(app *fiber.App, sceneHandler *SceneHandler, dragHandler *DragHandler, assetHandler *AssetHandler, cacheHandler *CacheHandler) fiber.Router {
	app.Use(Instrument())
	api := app.Group("/api/scene")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api.Get("/models", sceneHandler.ListModels)
	api.Get("/models/:id", sceneHandler.GetModel)
	api.Delete("/models/:id", sceneHandler.DeleteModel)
	api.Put("/models/:id/rotation", sceneHandler.SetRotation)
	api.Put("/models/:id/hidden", sceneHandler.SetHidden)
	api.Put("/models/:id/bounds", sceneHandler.SetBounds)
	api.Get("/placement/preview", sceneHandler.PreviewPlacement)

	api.Post("/drag/start", dragHandler.Start)
	api.Post("/drag/move", dragHandler.Move)
	api.Post("/drag/end", dragHandler.End)

	api.Post("/upload", assetHandler.Upload)

	api.Get("/cache/stats", cacheHandler.Stats)
	api.Post("/cache/preload", cacheHandler.Preload)
	api.Delete("/cache/:filename", cacheHandler.Invalidate)

	app.Get("/models/:filename", assetHandler.Download)

	return api
}
