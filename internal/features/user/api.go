package user

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	guard      *middleware.Guard
}

func NewUserApi(controller *UserController, guard *middleware.Guard) *UserApi {
	return &UserApi{
		controller: controller,
		guard:      guard,
	}
}

// Setup registers account administration routes
func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/auth/users", h.guard.RequireDB(), h.guard.Protect())

	users.Get("/", h.guard.Require("users.list"), h.controller.ListUsers)
	users.Put("/:id/role", h.guard.Require("users.role"), h.controller.ChangeRole)
}
