package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/utils"
)

// WebSocketAuthMiddleware authenticates websocket upgrades. Browsers
// cannot set headers on a WebSocket handshake, so the access token is
// taken from the query string.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("customer_id", claims.CustomerID)
		c.Set("store_id", claims.StoreID)

		c.Next()
	}
}
