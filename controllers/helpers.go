package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

// ErrNoPermission is the uniform authorization failure message.
var ErrNoPermission = errors.New("access denied")

func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		Role:       c.GetString("role"),
		CustomerID: c.GetUint("customer_id"),
		StoreID:    c.GetUint("store_id"),
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

// respondOrderError maps order-service errors to the HTTP taxonomy:
// client-correctable failures keep their message, everything else is a
// generic 500 with the detail only in the log.
func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrAccessDenied):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrInvalidOrderOTP),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrBadQuantity),
		errors.Is(err, services.ErrStoreNotFound),
		errors.Is(err, services.ErrMenuItemMissing):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.ErrorLogger.Printf("order request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
