package audit

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	guard      *middleware.Guard
}

func NewAuditApi(controller *AuditController, guard *middleware.Guard) *AuditApi {
	return &AuditApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit", h.guard.RequireDB(), h.guard.Protect())

	audit.Get("/", h.guard.Require("audit.list"), h.controller.ListLogs)
}
