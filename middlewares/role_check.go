package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/utils"
)

// RequireCustomer rejects any principal that is not a customer.
func RequireCustomer() gin.HandlerFunc {
	return requireRole(utils.RoleCustomer, "only customers can perform this action")
}

// RequireStore rejects any principal that is not a store.
func RequireStore() gin.HandlerFunc {
	return requireRole(utils.RoleStore, "only stores can perform this action")
}

func requireRole(role, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}
		if userRole != role {
			utils.RespondError(c, http.StatusForbidden, errors.New(message))
			c.Abort()
			return
		}
		c.Next()
	}
}
