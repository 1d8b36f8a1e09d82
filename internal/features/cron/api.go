package cron_feature

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	controller *CronController
	guard      *middleware.Guard
}

func NewCronApi(controller *CronController, guard *middleware.Guard) *CronApi {
	return &CronApi{
		controller: controller,
		guard:      guard,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	cron := app.Group("/api/cron", h.guard.RequireDB(), h.guard.Protect(), h.guard.Require("cron.manage"))

	cron.Get("/jobs", h.controller.ListJobs)
	cron.Post("/jobs/:name/run", h.controller.RunJob)
	cron.Get("/runs", h.controller.ListRuns)
}
