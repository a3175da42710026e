package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/services"
)

// WebSocketHandler upgrades the connection and hands it to the hub.
// Identity comes from the auth middleware, which accepts the token as a
// query parameter for browser WebSocket clients.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userType := c.GetString("userType")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, userType)
	}
}
