package system

import (
	"time"

	"charity-admin/internal/config"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SystemController struct {
	config *config.Config
	db     middleware.StatusChecker
}

func NewSystemController(cfg *config.Config, db middleware.StatusChecker) *SystemController {
	return &SystemController{config: cfg, db: db}
}

type Health struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
}

// Health godoc
// @Summary      Health check
// @Description  Always answers while the process is up, with the database state.
// @Tags         system
// @Produce      json
// @Success      200  {object} Health
// @Router       /health [get]
func (ctrl *SystemController) Health(c *fiber.Ctx) error {
	database := "disconnected"
	if ctrl.db.Connected() {
		database = "connected"
	}
	return c.JSON(Health{
		Success:     true,
		Message:     "API is healthy",
		Timestamp:   time.Now().UTC(),
		Environment: ctrl.config.Environment,
		Database:    database,
	})
}

func (ctrl *SystemController) Banner(c *fiber.Ctx) error {
	return c.SendString(ctrl.config.AppName + " Management API is running")
}
