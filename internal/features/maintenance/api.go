package maintenance

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MaintenanceApi struct {
	controller *MaintenanceController
	guard      *middleware.Guard
}

func NewMaintenanceApi(controller *MaintenanceController, guard *middleware.Guard) *MaintenanceApi {
	return &MaintenanceApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *MaintenanceApi) Setup(app *fiber.App) {
	records := app.Group("/api/maintenance", h.guard.RequireDB(), h.guard.Protect())

	records.Get("/", h.controller.ListMaintenance)
	records.Post("/", h.guard.Require("maintenance.create"), h.controller.CreateMaintenance)
	records.Get("/:id", h.controller.GetMaintenance)
	records.Put("/:id", h.guard.Require("maintenance.update"), h.controller.UpdateMaintenance)
	records.Delete("/:id", h.guard.Require("maintenance.delete"), h.controller.DeleteMaintenance)
	records.Put("/:id/complete", h.guard.Require("maintenance.complete"), h.controller.CompleteMaintenance)
	// kept for clients of the older status route
	records.Put("/:id/status", h.guard.Require("maintenance.complete"), h.controller.CompleteMaintenance)
	records.Put("/:id/document", h.guard.Require("maintenance.document"), h.controller.UploadDocument)
}
