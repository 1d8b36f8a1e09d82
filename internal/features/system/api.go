package system

import (
	"charity-admin/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type SystemApi struct {
	controller *SystemController
}

func NewSystemApi(controller *SystemController) api.Route {
	return &SystemApi{controller: controller}
}

// Setup registers the routes that stay up without a database.
func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", h.controller.Banner)
}
