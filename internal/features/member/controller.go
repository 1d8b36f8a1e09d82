package member

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type MemberController struct {
	Service MemberService
}

func NewMemberController(service MemberService) *MemberController {
	return &MemberController{Service: service}
}

// ListMembers godoc
// @Summary      List members
// @Tags         members
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        status query string false "active, inactive, deceased or withdrawn"
// @Param        search query string false "Matches first name, last name or national ID"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members [get]
func (ctrl *MemberController) ListMembers(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)
	filter := MemberFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	members, total, err := ctrl.Service.ListMembers(c.UserContext(), filter, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, members, len(members), p, total)
}

// GetMember godoc
// @Summary      Get a member with payment records
// @Tags         members
// @Produce      json
// @Param        id path string true "Member ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members/{id} [get]
func (ctrl *MemberController) GetMember(c *fiber.Ctx) error {
	m, err := ctrl.Service.GetMember(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}

// CreateMember godoc
// @Summary      Register a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        input body Member true "Member"
// @Success      201  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members [post]
func (ctrl *MemberController) CreateMember(c *fiber.Ctx) error {
	var m Member
	if err := c.BodyParser(&m); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := ctrl.Service.CreateMember(c.UserContext(), &m)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// UpdateMember godoc
// @Summary      Update a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        id path string true "Member ID"
// @Param        input body Member true "Fields to change"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members/{id} [put]
func (ctrl *MemberController) UpdateMember(c *fiber.Ctx) error {
	m, err := ctrl.Service.UpdateMember(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}

// DeleteMember godoc
// @Summary      Delete a member
// @Tags         members
// @Produce      json
// @Param        id path string true "Member ID"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members/{id} [delete]
func (ctrl *MemberController) DeleteMember(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteMember(c.UserContext(), c.Params("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.Map{})
}

// UploadPhoto godoc
// @Summary      Upload a member profile photo
// @Tags         members
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Member ID"
// @Param        profilePhoto formData file true "jpg, jpeg, png or gif, max 5MB"
// @Success      200  {object} response.Envelope
// @Failure      400  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/members/{id}/photo [put]
func (ctrl *MemberController) UploadPhoto(c *fiber.Ctx) error {
	fh, _ := c.FormFile("profilePhoto")

	m, err := ctrl.Service.UploadPhoto(c.UserContext(), c.Params("id"), fh)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, m)
}
