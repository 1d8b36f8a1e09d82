package payment

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PaymentApi struct {
	controller *PaymentController
	guard      *middleware.Guard
}

func NewPaymentApi(controller *PaymentController, guard *middleware.Guard) *PaymentApi {
	return &PaymentApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *PaymentApi) Setup(app *fiber.App) {
	payments := app.Group("/api/payments", h.guard.RequireDB(), h.guard.Protect())

	payments.Get("/", h.controller.ListPayments)
	payments.Post("/", h.guard.Require("payments.create"), h.controller.CreatePayment)
	payments.Get("/member/:memberId", h.controller.MemberPayments)
	payments.Get("/:id", h.controller.GetPayment)
	payments.Put("/:id", h.guard.Require("payments.update"), h.controller.UpdatePayment)
	payments.Delete("/:id", h.guard.Require("payments.delete"), h.controller.DeletePayment)
	payments.Put("/:id/receipt", h.guard.Require("payments.receipt"), h.controller.UploadReceipt)
}
