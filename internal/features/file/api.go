package file

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type FileApi struct {
	controller *FileController
	guard      *middleware.Guard
}

func NewFileApi(controller *FileController, guard *middleware.Guard) *FileApi {
	return &FileApi{
		controller: controller,
		guard:      guard,
	}
}

// Setup registers the download route. Photos are served without a token so
// they can be embedded directly; other files pass through Protect. Uploads go
// through the owning record's routes.
func (h *FileApi) Setup(app *fiber.App) {
	files := app.Group("/api/files", h.guard.RequireDB())

	files.Get("/:id", h.controller.Download, h.guard.Protect(), h.controller.DownloadPrivate)
}
