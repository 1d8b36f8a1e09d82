package auth

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	guard      *middleware.Guard
}

func NewAuthApi(controller *AuthController, guard *middleware.Guard) *AuthApi {
	return &AuthApi{
		controller: controller,
		guard:      guard,
	}
}

// Setup registers all auth-related routes
func (h *AuthApi) Setup(app *fiber.App) {
	auth := app.Group("/api/auth", h.guard.RequireDB())

	// Public routes
	auth.Post("/register", middleware.AuthRateLimiter(), h.controller.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), h.controller.Login)
	auth.Post("/forgotpassword", middleware.AuthRateLimiter(), h.controller.ForgotPassword)

	auth.Get("/me", h.guard.Protect(), h.controller.Me)
	auth.Put("/resetpassword", h.guard.Protect(), middleware.AuthRateLimiter(), h.controller.ResetPassword)
}
