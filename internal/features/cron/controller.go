package cron_feature

import (
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{Service: service}
}

// ListJobs godoc
// @Summary      List scheduled jobs
// @Tags         cron
// @Produce      json
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/cron/jobs [get]
func (ctrl *CronController) ListJobs(c *fiber.Ctx) error {
	return response.Success(c, ctrl.Service.Jobs())
}

// RunJob godoc
// @Summary      Run a scheduled job now
// @Tags         cron
// @Produce      json
// @Param        name path string true "Job name"
// @Success      200  {object} response.Envelope
// @Failure      404  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/cron/jobs/{name}/run [post]
func (ctrl *CronController) RunJob(c *fiber.Ctx) error {
	run, err := ctrl.Service.Run(c.UserContext(), c.Params("name"), true)
	if run == nil && err != nil {
		return response.Error(c, err)
	}
	// A failed run is still a recorded run.
	return response.Success(c, run)
}

// ListRuns godoc
// @Summary      Recent job runs
// @Tags         cron
// @Produce      json
// @Param        job query string false "Job name"
// @Param        limit query int false "Defaults to 50"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/cron/runs [get]
func (ctrl *CronController) ListRuns(c *fiber.Ctx) error {
	runs, err := ctrl.Service.ListRuns(c.UserContext(), c.Query("job"), int64(c.QueryInt("limit", defaultRunLimit)))
	if err != nil {
		return response.Error(c, err)
	}
	count := len(runs)
	return c.JSON(response.Envelope{Success: true, Data: runs, Count: &count})
}
