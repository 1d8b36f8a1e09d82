package vehicle

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type VehicleController struct {
	Service VehicleService
}

func NewVehicleController(service VehicleService) *VehicleController {
	return &VehicleController{Service: service}
}

// ListVehicles godoc
// @Summary      List vehicles
// @Tags         vehicles
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        status query string false "available, in_use, maintenance or out_of_service"
// @Param        search query string false "Matches make, model or license plate"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles [get]
func (ctrl *VehicleController) ListVehicles(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := VehicleFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	vehicles, total, err := ctrl.Service.ListVehicles(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, vehicles, len(vehicles), p, total)
}

// GetVehicle godoc
// @Summary      Get a vehicle
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles/{id} [get]
func (ctrl *VehicleController) GetVehicle(c *fiber.Ctx) error {
	v, err := ctrl.Service.GetVehicle(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, v)
}

// CreateVehicle godoc
// @Summary      Register a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        input body Vehicle true "Vehicle"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope "Validation failure or duplicate plate"
// @Security     BearerAuth
// @Router       /api/vehicles [post]
func (ctrl *VehicleController) CreateVehicle(c *fiber.Ctx) error {
	v := NewVehicle()
	if err := c.BodyParser(&v); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreateVehicle(c.UserContext(), &v)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdateVehicle godoc
// @Summary      Update a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID"
// @Param        input body Vehicle true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles/{id} [put]
func (ctrl *VehicleController) UpdateVehicle(c *fiber.Ctx) error {
	v, err := ctrl.Service.UpdateVehicle(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, v)
}

// DeleteVehicle godoc
// @Summary      Delete a vehicle
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles/{id} [delete]
func (ctrl *VehicleController) DeleteVehicle(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteVehicle(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// ChangeStatus godoc
// @Summary      Change vehicle status
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID"
// @Param        input body StatusRequest true "New status"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles/{id}/status [put]
func (ctrl *VehicleController) ChangeStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	v, err := ctrl.Service.ChangeStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, v)
}

// UploadDocument godoc
// @Summary      Attach a document to a vehicle
// @Tags         vehicles
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Vehicle ID"
// @Param        document formData file true "pdf, doc, docx, jpg, jpeg or png, max 10MB"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/vehicles/{id}/document [put]
func (ctrl *VehicleController) UploadDocument(c *fiber.Ctx) error {
	fh, _ := c.FormFile("document")

	v, err := ctrl.Service.UploadDocument(c.UserContext(), c.Params("id"), fh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, v)
}
