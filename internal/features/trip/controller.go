package trip

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type TripController struct {
	Service TripService
}

func NewTripController(service TripService) *TripController {
	return &TripController{Service: service}
}

// ListTrips godoc
// @Summary      List trips
// @Tags         trips
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        vehicle query string false "Vehicle ID"
// @Param        driver query string false "Driver user ID"
// @Param        status query string false "scheduled, in_progress, completed or cancelled"
// @Param        startDate query string false "Earliest start date (YYYY-MM-DD)"
// @Param        endDate query string false "Latest start date (YYYY-MM-DD)"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips [get]
func (ctrl *TripController) ListTrips(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := TripFilter{
		Vehicle:   c.Query("vehicle"),
		Driver:    c.Query("driver"),
		Status:    c.Query("status"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}

	trips, total, err := ctrl.Service.ListTrips(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, trips, len(trips), p, total)
}

// GetTrip godoc
// @Summary      Get a trip with vehicle, driver and passengers
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips/{id} [get]
func (ctrl *TripController) GetTrip(c *fiber.Ctx) error {
	t, err := ctrl.Service.GetTrip(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, t)
}

// CreateTrip godoc
// @Summary      Schedule a trip
// @Description  The vehicle must be available and is marked in use.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        input body Trip true "Trip"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope "Validation failure or vehicle not available"
// @Failure      404  {object} response.Envelope "Vehicle not found"
// @Security     BearerAuth
// @Router       /api/trips [post]
func (ctrl *TripController) CreateTrip(c *fiber.Ctx) error {
	t := NewTrip()
	if err := c.BodyParser(&t); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreateTrip(c.UserContext(), &t)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdateTrip godoc
// @Summary      Update a trip
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id path string true "Trip ID"
// @Param        input body Trip true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips/{id} [put]
func (ctrl *TripController) UpdateTrip(c *fiber.Ctx) error {
	t, err := ctrl.Service.UpdateTrip(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, t)
}

// DeleteTrip godoc
// @Summary      Delete a trip
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips/{id} [delete]
func (ctrl *TripController) DeleteTrip(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteTrip(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// CompleteTrip godoc
// @Summary      Complete a trip
// @Description  Records the end odometer and returns the vehicle to service.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id path string true "Trip ID"
// @Param        input body CompleteRequest true "Final odometer reading"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips/{id}/complete [put]
func (ctrl *TripController) CompleteTrip(c *fiber.Ctx) error {
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	t, err := ctrl.Service.CompleteTrip(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, t)
}

// CancelTrip godoc
// @Summary      Cancel a trip
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/trips/{id}/cancel [put]
func (ctrl *TripController) CancelTrip(c *fiber.Ctx) error {
	t, err := ctrl.Service.CancelTrip(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, t)
}
