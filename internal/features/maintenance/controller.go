package maintenance

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type MaintenanceController struct {
	Service MaintenanceService
}

func NewMaintenanceController(service MaintenanceService) *MaintenanceController {
	return &MaintenanceController{Service: service}
}

// ListMaintenance godoc
// @Summary      List maintenance records
// @Tags         maintenance
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        vehicle query string false "Vehicle ID"
// @Param        maintenanceType query string false "Maintenance type"
// @Param        startDate query string false "Earliest date (YYYY-MM-DD)"
// @Param        endDate query string false "Latest date (YYYY-MM-DD)"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance [get]
func (ctrl *MaintenanceController) ListMaintenance(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := MaintenanceFilter{
		Vehicle:         c.Query("vehicle"),
		MaintenanceType: c.Query("maintenanceType"),
		StartDate:       c.Query("startDate"),
		EndDate:         c.Query("endDate"),
	}

	records, total, err := ctrl.Service.ListMaintenance(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, records, len(records), p, total)
}

// GetMaintenance godoc
// @Summary      Get a maintenance record
// @Tags         maintenance
// @Produce      json
// @Param        id path string true "Maintenance ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance/{id} [get]
func (ctrl *MaintenanceController) GetMaintenance(c *fiber.Ctx) error {
	m, err := ctrl.Service.GetMaintenance(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}

// CreateMaintenance godoc
// @Summary      Record maintenance
// @Description  Any type other than inspection puts the vehicle in maintenance.
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        input body Maintenance true "Maintenance record"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope "Vehicle not found"
// @Security     BearerAuth
// @Router       /api/maintenance [post]
func (ctrl *MaintenanceController) CreateMaintenance(c *fiber.Ctx) error {
	var m Maintenance
	if err := c.BodyParser(&m); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreateMaintenance(c.UserContext(), &m)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdateMaintenance godoc
// @Summary      Update a maintenance record
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id path string true "Maintenance ID"
// @Param        input body Maintenance true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance/{id} [put]
func (ctrl *MaintenanceController) UpdateMaintenance(c *fiber.Ctx) error {
	m, err := ctrl.Service.UpdateMaintenance(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}

// DeleteMaintenance godoc
// @Summary      Delete a maintenance record
// @Tags         maintenance
// @Produce      json
// @Param        id path string true "Maintenance ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance/{id} [delete]
func (ctrl *MaintenanceController) DeleteMaintenance(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteMaintenance(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// CompleteMaintenance godoc
// @Summary      Complete maintenance
// @Description  Returns a vehicle still in maintenance to available.
// @Tags         maintenance
// @Produce      json
// @Param        id path string true "Maintenance ID"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope "Already completed"
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance/{id}/complete [put]
func (ctrl *MaintenanceController) CompleteMaintenance(c *fiber.Ctx) error {
	m, err := ctrl.Service.CompleteMaintenance(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}

// UploadDocument godoc
// @Summary      Attach a document to a maintenance record
// @Tags         maintenance
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Maintenance ID"
// @Param        document formData file true "pdf, doc, docx, jpg, jpeg or png, max 10MB"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/maintenance/{id}/document [put]
func (ctrl *MaintenanceController) UploadDocument(c *fiber.Ctx) error {
	fh, _ := c.FormFile("document")

	m, err := ctrl.Service.UploadDocument(c.UserContext(), c.Params("id"), fh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}
