package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/utils"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GetMyOrders -> GET /api/users/orders (customer only)
func (uc *UserController) GetMyOrders(c *gin.Context) {
	customerID := c.GetUint("customer_id")

	var orders []models.Order
	err := uc.DB.Preload("OrderItems.MenuItem").
		Preload("Store").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		utils.ErrorLogger.Printf("failed to list orders for customer %d: %v", customerID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Your orders", orders)
}
