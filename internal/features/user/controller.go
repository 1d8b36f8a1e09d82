package user

import (
	"charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"
	"charity-admin/internal/common/validation"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	UserService UserService
}

func NewUserController(userService UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

type ChangeRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=admin staff member"`
}

// ListUsers godoc
// @Summary      List users
// @Description  Paginated list of operator accounts (admin only)
// @Tags         auth
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200  {object} response.Envelope
// @Failure      403  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/users [get]
func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	users, total, err := ctrl.UserService.ListUsers(c.UserContext(), p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, users, len(users), p, total)
}

// ChangeRole godoc
// @Summary      Change a user's role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        input body ChangeRoleRequest true "New role"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/users/{id}/role [put]
func (ctrl *UserController) ChangeRole(c *fiber.Ctx) error {
	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.Error(c, err)
	}

	user, err := ctrl.UserService.ChangeRole(c.UserContext(), c.Params("id"), req.Role)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}
