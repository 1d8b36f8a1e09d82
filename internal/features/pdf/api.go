package pdf

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PDFApi struct {
	controller *PDFController
	guard      *middleware.Guard
}

func NewPDFApi(controller *PDFController, guard *middleware.Guard) *PDFApi {
	return &PDFApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *PDFApi) Setup(app *fiber.App) {
	pdf := app.Group("/api/pdf", h.guard.RequireDB(), h.guard.Protect())

	pdf.Get("/comprehensive", h.controller.Comprehensive)
	pdf.Get("/financial", h.controller.Financial)
	pdf.Get("/members", h.controller.Members)
	pdf.Get("/vehicles", h.controller.Vehicles)
}
