package activity

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type ActivityController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewActivityController(hub *Hub, logger *zap.Logger) *ActivityController {
	return &ActivityController{Hub: hub, Logger: logger}
}

// Stream pushes every audit entry to the socket until either side goes away.
func (ctrl *ActivityController) Stream(c *websocket.Conn) {
	events, unsubscribe := ctrl.Hub.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				ctrl.Logger.Debug("activity write failed", zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
