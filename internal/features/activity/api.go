package activity

import (
	"charity-admin/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ActivityApi struct {
	ActivityController *ActivityController
	Guard              *middleware.Guard
}

func NewActivityApi(activityController *ActivityController, guard *middleware.Guard) *ActivityApi {
	return &ActivityApi{
		ActivityController: activityController,
		Guard:              guard,
	}
}

func (api *ActivityApi) Setup(app *fiber.App) {
	app.Get("/api/ws",
		api.Guard.RequireDB(),
		api.Guard.Protect(),
		api.Guard.Require("activity.stream"),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
		websocket.New(api.ActivityController.Stream),
	)
}
