package report

import (
	"fmt"
	"time"

	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	Service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{Service: service}
}

// Dashboard godoc
// @Summary      Dashboard statistics
// @Tags         reports
// @Produce      json
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/dashboard [get]
func (ctrl *ReportController) Dashboard(c *fiber.Ctx) error {
	d, err := ctrl.Service.Dashboard(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, d)
}

// Financial godoc
// @Summary      Financial report
// @Tags         reports
// @Produce      json
// @Param        startDate query string false "Defaults to January 1st"
// @Param        endDate query string false "Defaults to today"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/financial [get]
func (ctrl *ReportController) Financial(c *fiber.Ctx) error {
	r, err := ctrl.Service.Financial(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, r)
}

// Members godoc
// @Summary      Membership report
// @Tags         reports
// @Produce      json
// @Param        startDate query string false "Defaults to January 1st"
// @Param        endDate query string false "Defaults to today"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/members [get]
func (ctrl *ReportController) Members(c *fiber.Ctx) error {
	r, err := ctrl.Service.Members(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, r)
}

// Vehicles godoc
// @Summary      Fleet usage report
// @Tags         reports
// @Produce      json
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/vehicles [get]
func (ctrl *ReportController) Vehicles(c *fiber.Ctx) error {
	r, err := ctrl.Service.Vehicles(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, r)
}

// ExportMembers godoc
// @Summary      Export members
// @Tags         reports
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format query string false "json (default) or xlsx"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/export/members [get]
func (ctrl *ReportController) ExportMembers(c *fiber.Ctx) error {
	members, err := ctrl.Service.ExportMembers(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}

	if c.Query("format") == "xlsx" {
		data, err := MembersWorkbook(members)
		if err != nil {
			return response.Error(c, err)
		}
		return sendWorkbook(c, "members", data)
	}

	count := len(members)
	return c.JSON(response.Envelope{Success: true, Count: &count, Data: members})
}

// ExportFinancial godoc
// @Summary      Export payments and expenses
// @Tags         reports
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        startDate query string true "Start date (YYYY-MM-DD)"
// @Param        endDate query string true "End date (YYYY-MM-DD)"
// @Param        format query string false "json (default) or xlsx"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/reports/export/financial [get]
func (ctrl *ReportController) ExportFinancial(c *fiber.Ctx) error {
	export, err := ctrl.Service.ExportFinancial(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return response.Error(c, err)
	}

	if c.Query("format") == "xlsx" {
		data, err := FinancialWorkbook(export)
		if err != nil {
			return response.Error(c, err)
		}
		return sendWorkbook(c, "financial", data)
	}
	return response.Success(c, export)
}

func sendWorkbook(c *fiber.Ctx, name string, data []byte) error {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}
