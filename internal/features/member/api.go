package member

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MemberApi struct {
	controller *MemberController
	guard      *middleware.Guard
}

func NewMemberApi(controller *MemberController, guard *middleware.Guard) *MemberApi {
	return &MemberApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *MemberApi) Setup(app *fiber.App) {
	members := app.Group("/api/members", h.guard.RequireDB(), h.guard.Protect())

	members.Get("/", h.controller.ListMembers)
	members.Post("/", h.guard.Require("members.create"), h.controller.CreateMember)
	members.Get("/:id", h.controller.GetMember)
	members.Put("/:id", h.guard.Require("members.update"), h.controller.UpdateMember)
	members.Delete("/:id", h.guard.Require("members.delete"), h.controller.DeleteMember)
	members.Put("/:id/photo", h.guard.Require("members.photo"), h.controller.UploadPhoto)
}
