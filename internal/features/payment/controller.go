package payment

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	Service PaymentService
}

func NewPaymentController(service PaymentService) *PaymentController {
	return &PaymentController{Service: service}
}

// ListPayments godoc
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        member query string false "Member ID"
// @Param        paymentType query string false "Payment type"
// @Param        isPaid query bool false "Paid flag"
// @Param        startDate query string false "YYYY-MM-DD"
// @Param        endDate query string false "YYYY-MM-DD, inclusive"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments [get]
func (ctrl *PaymentController) ListPayments(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := PaymentFilter{
		Member:      c.Query("member"),
		PaymentType: c.Query("paymentType"),
		IsPaid:      c.Query("isPaid"),
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
	}

	payments, total, err := ctrl.Service.ListPayments(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, payments, len(payments), p, total)
}

// GetPayment godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments/{id} [get]
func (ctrl *PaymentController) GetPayment(c *fiber.Ctx) error {
	p, err := ctrl.Service.GetPayment(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, p)
}

// MemberPayments godoc
// @Summary      Payment history of a member
// @Tags         payments
// @Produce      json
// @Param        memberId path string true "Member ID"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments/member/{memberId} [get]
func (ctrl *PaymentController) MemberPayments(c *fiber.Ctx) error {
	payments, err := ctrl.Service.MemberPayments(c.UserContext(), c.Params("memberId"))
	if err != nil {
		return response.Error(c, err)
	}
	count := len(payments)
	return c.JSON(response.Envelope{Success: true, Data: payments, Count: &count})
}

// CreatePayment godoc
// @Summary      Record a payment
// @Description  The caller becomes the collector and a receipt number is generated
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        input body Payment true "Payment"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments [post]
func (ctrl *PaymentController) CreatePayment(c *fiber.Ctx) error {
	p := NewPayment()
	if err := c.BodyParser(&p); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreatePayment(c.UserContext(), &p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdatePayment godoc
// @Summary      Update a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        input body Payment true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments/{id} [put]
func (ctrl *PaymentController) UpdatePayment(c *fiber.Ctx) error {
	p, err := ctrl.Service.UpdatePayment(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, p)
}

// DeletePayment godoc
// @Summary      Delete a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments/{id} [delete]
func (ctrl *PaymentController) DeletePayment(c *fiber.Ctx) error {
	if err := ctrl.Service.DeletePayment(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// UploadReceipt godoc
// @Summary      Attach a receipt to a payment
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        receipt formData file true "jpg, jpeg, png or pdf, max 5MB"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/payments/{id}/receipt [put]
func (ctrl *PaymentController) UploadReceipt(c *fiber.Ctx) error {
	fh, _ := c.FormFile("receipt")

	p, err := ctrl.Service.UploadReceipt(c.UserContext(), c.Params("id"), fh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, p)
}
