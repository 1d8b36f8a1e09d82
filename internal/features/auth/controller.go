package auth

import (
	"charity-admin/internal/common/response"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	AuthService AuthService
}

func NewAuthController(authService AuthService) *AuthController {
	return &AuthController{
		AuthService: authService,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a member-role account and returns a signed token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterRequest true "Register Input"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Router       /api/auth/register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.Error(c, err)
	}

	user, token, err := ctrl.AuthService.Register(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Token(c, fiber.StatusCreated, token, user)
}

// Login godoc
// @Summary      Login
// @Description  Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginRequest true "Login Input"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      401  {object} response.Envelope
// @Router       /api/auth/login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Please provide an email and password")
	}

	user, token, err := ctrl.AuthService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Token(c, fiber.StatusOK, token, user)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object} response.Envelope
// @Failure      401  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/me [get]
func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	return response.Success(c, middleware.CurrentUser(c))
}

// ForgotPassword godoc
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body ForgotPasswordRequest true "Account email"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Router       /api/auth/forgotpassword [post]
func (ctrl *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.Error(c, err)
	}

	if err := ctrl.AuthService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return response.Error(c, err)
	}
	return response.Message(c, ForgotPasswordMessage)
}

// ForgotPasswordMessage acknowledges a reset request. No mail transport is
// configured, so it does not promise delivery.
const ForgotPasswordMessage = "Password reset request received, please contact an administrator to complete it"

// ResetPassword godoc
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body ResetPasswordRequest true "Current and new password"
// @Success      200  {object} response.Envelope
// @Failure      401  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/resetpassword [put]
func (ctrl *AuthController) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.Error(c, err)
	}

	current := middleware.CurrentUser(c)
	if err := ctrl.AuthService.ResetPassword(c.UserContext(), current.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return response.Error(c, err)
	}
	return response.Message(c, "Password updated successfully")
}
