package expense

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ExpenseApi struct {
	controller *ExpenseController
	guard      *middleware.Guard
}

func NewExpenseApi(controller *ExpenseController, guard *middleware.Guard) *ExpenseApi {
	return &ExpenseApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *ExpenseApi) Setup(app *fiber.App) {
	expenses := app.Group("/api/expenses", h.guard.RequireDB(), h.guard.Protect())

	expenses.Get("/", h.controller.ListExpenses)
	expenses.Post("/", h.guard.Require("expenses.create"), h.controller.CreateExpense)
	expenses.Get("/:id", h.controller.GetExpense)
	expenses.Put("/:id", h.guard.Require("expenses.update"), h.controller.UpdateExpense)
	expenses.Delete("/:id", h.guard.Require("expenses.delete"), h.controller.DeleteExpense)
	expenses.Put("/:id/approve", h.guard.Require("expenses.approve"), h.controller.ApproveExpense)
	expenses.Put("/:id/reject", h.guard.Require("expenses.reject"), h.controller.RejectExpense)
	expenses.Put("/:id/receipt", h.guard.Require("expenses.receipt"), h.controller.UploadReceipt)
}
