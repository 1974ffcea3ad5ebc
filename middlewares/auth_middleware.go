package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/utils"
)

const accessTokenCookie = "accessToken"

// AuthMiddleware validates the access credential from the auth cookie
// or a bearer header and stores the principal in the request context.
// Any missing, malformed or expired token is a plain 401, never fatal.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
			tokenString = cookie
		} else if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("please log in to access this resource"))
			c.Abort()
			return
		}

		claims, err := utils.ParseAccessToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("session expired, please log in again"))
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Set("customer_id", claims.CustomerID)
		c.Set("store_id", claims.StoreID)

		c.Next()
	}
}
