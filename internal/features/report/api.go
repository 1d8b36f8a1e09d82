package report

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	guard      *middleware.Guard
}

func NewReportApi(controller *ReportController, guard *middleware.Guard) *ReportApi {
	return &ReportApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	reports := app.Group("/api/reports", h.guard.RequireDB(), h.guard.Protect())

	reports.Get("/dashboard", h.controller.Dashboard)
	reports.Get("/financial", h.guard.Require("reports.financial"), h.controller.Financial)
	reports.Get("/members", h.guard.Require("reports.members"), h.controller.Members)
	reports.Get("/vehicles", h.guard.Require("reports.vehicles"), h.controller.Vehicles)
	reports.Get("/export/members", h.guard.Require("reports.export"), h.controller.ExportMembers)
	reports.Get("/export/financial", h.guard.Require("reports.export"), h.controller.ExportFinancial)
}
