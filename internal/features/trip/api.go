package trip

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TripApi struct {
	controller *TripController
	guard      *middleware.Guard
}

func NewTripApi(controller *TripController, guard *middleware.Guard) *TripApi {
	return &TripApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *TripApi) Setup(app *fiber.App) {
	trips := app.Group("/api/trips", h.guard.RequireDB(), h.guard.Protect())

	trips.Get("/", h.controller.ListTrips)
	trips.Post("/", h.guard.Require("trips.create"), h.controller.CreateTrip)
	trips.Get("/:id", h.controller.GetTrip)
	trips.Put("/:id", h.guard.Require("trips.update"), h.controller.UpdateTrip)
	trips.Delete("/:id", h.guard.Require("trips.delete"), h.controller.DeleteTrip)
	trips.Put("/:id/complete", h.guard.Require("trips.complete"), h.controller.CompleteTrip)
	trips.Put("/:id/cancel", h.guard.Require("trips.cancel"), h.controller.CancelTrip)
}
