package pdf

import (
	"fmt"

	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type PDFController struct {
	Service PDFService
}

func NewPDFController(service PDFService) *PDFController {
	return &PDFController{Service: service}
}

func (ctrl *PDFController) render(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := ctrl.Service.Render(c.UserContext(), kind, c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			return response.Error(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-report.pdf"`, kind))
		return c.Send(out)
	}
}

// Comprehensive godoc
// @Summary      Comprehensive PDF report
// @Tags         pdf
// @Produce      application/pdf
// @Param        startDate query string false "Defaults to January 1st"
// @Param        endDate query string false "Defaults to today"
// @Success      200  {file} file
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/pdf/comprehensive [get]
func (ctrl *PDFController) Comprehensive(c *fiber.Ctx) error {
	return ctrl.render(KindComprehensive)(c)
}

// Financial godoc
// @Summary      Financial PDF report
// @Tags         pdf
// @Produce      application/pdf
// @Param        startDate query string false "Defaults to January 1st"
// @Param        endDate query string false "Defaults to today"
// @Success      200  {file} file
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/pdf/financial [get]
func (ctrl *PDFController) Financial(c *fiber.Ctx) error {
	return ctrl.render(KindFinancial)(c)
}

// Members godoc
// @Summary      Membership PDF report
// @Tags         pdf
// @Produce      application/pdf
// @Param        startDate query string false "Defaults to January 1st"
// @Param        endDate query string false "Defaults to today"
// @Success      200  {file} file
// @Security     BearerAuth
// @Router       /api/pdf/members [get]
func (ctrl *PDFController) Members(c *fiber.Ctx) error {
	return ctrl.render(KindMembers)(c)
}

// Vehicles godoc
// @Summary      Fleet PDF report
// @Tags         pdf
// @Produce      application/pdf
// @Success      200  {file} file
// @Security     BearerAuth
// @Router       /api/pdf/vehicles [get]
func (ctrl *PDFController) Vehicles(c *fiber.Ctx) error {
	return ctrl.render(KindVehicles)(c)
}
