package expense

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type ExpenseController struct {
	Service ExpenseService
}

func NewExpenseController(service ExpenseService) *ExpenseController {
	return &ExpenseController{Service: service}
}

// ListExpenses godoc
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        category query string false "Category"
// @Param        approvalStatus query string false "pending, approved or rejected"
// @Param        startDate query string false "YYYY-MM-DD"
// @Param        endDate query string false "YYYY-MM-DD, inclusive"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses [get]
func (ctrl *ExpenseController) ListExpenses(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := ExpenseFilter{
		Category:       c.Query("category"),
		ApprovalStatus: c.Query("approvalStatus"),
		StartDate:      c.Query("startDate"),
		EndDate:        c.Query("endDate"),
	}

	expenses, total, err := ctrl.Service.ListExpenses(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, expenses, len(expenses), p, total)
}

// GetExpense godoc
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id} [get]
func (ctrl *ExpenseController) GetExpense(c *fiber.Ctx) error {
	e, err := ctrl.Service.GetExpense(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, e)
}

// CreateExpense godoc
// @Summary      Record an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        input body Expense true "Expense"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses [post]
func (ctrl *ExpenseController) CreateExpense(c *fiber.Ctx) error {
	e := NewExpense()
	if err := c.BodyParser(&e); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreateExpense(c.UserContext(), &e)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdateExpense godoc
// @Summary      Update an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        input body Expense true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id} [put]
func (ctrl *ExpenseController) UpdateExpense(c *fiber.Ctx) error {
	e, err := ctrl.Service.UpdateExpense(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, e)
}

// DeleteExpense godoc
// @Summary      Delete an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id} [delete]
func (ctrl *ExpenseController) DeleteExpense(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteExpense(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// ApproveExpense godoc
// @Summary      Approve a pending expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope "Expense is not pending"
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id}/approve [put]
func (ctrl *ExpenseController) ApproveExpense(c *fiber.Ctx) error {
	e, err := ctrl.Service.ApproveExpense(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, e)
}

// RejectExpense godoc
// @Summary      Reject a pending expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope "Expense is not pending"
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id}/reject [put]
func (ctrl *ExpenseController) RejectExpense(c *fiber.Ctx) error {
	e, err := ctrl.Service.RejectExpense(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, e)
}

// UploadReceipt godoc
// @Summary      Attach a receipt to an expense
// @Tags         expenses
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        receipt formData file true "jpg, jpeg, png or pdf, max 5MB"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/expenses/{id}/receipt [put]
func (ctrl *ExpenseController) UploadReceipt(c *fiber.Ctx) error {
	fh, _ := c.FormFile("receipt")

	e, err := ctrl.Service.UploadReceipt(c.UserContext(), c.Params("id"), fh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, e)
}
