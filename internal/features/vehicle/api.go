package vehicle

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type VehicleApi struct {
	controller *VehicleController
	guard      *middleware.Guard
}

func NewVehicleApi(controller *VehicleController, guard *middleware.Guard) *VehicleApi {
	return &VehicleApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *VehicleApi) Setup(app *fiber.App) {
	vehicles := app.Group("/api/vehicles", h.guard.RequireDB(), h.guard.Protect())

	vehicles.Get("/", h.controller.ListVehicles)
	vehicles.Post("/", h.guard.Require("vehicles.create"), h.controller.CreateVehicle)
	vehicles.Get("/:id", h.controller.GetVehicle)
	vehicles.Put("/:id", h.guard.Require("vehicles.update"), h.controller.UpdateVehicle)
	vehicles.Delete("/:id", h.guard.Require("vehicles.delete"), h.controller.DeleteVehicle)
	vehicles.Put("/:id/status", h.guard.Require("vehicles.status"), h.controller.ChangeStatus)
	vehicles.Put("/:id/document", h.guard.Require("vehicles.document"), h.controller.UploadDocument)
}
