package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// CreateMenuItem -> POST /api/menu (store only)
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req struct {
		Name   string  `json:"name" binding:"required"`
		Price  float64 `json:"price" binding:"required,gte=0"`
		Status string  `json:"status" binding:"omitempty,oneof=AVAILABLE OUT_OF_STOCK"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		req.Status = models.MenuItemAvailable
	}

	item := models.MenuItem{
		StoreID: c.GetUint("store_id"),
		Name:    req.Name,
		Price:   req.Price,
		Status:  req.Status,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.ErrorLogger.Printf("failed to create menu item: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu item added", item)
}

// UpdateMenuItem -> PUT /api/menu/:item_id (owning store only)
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if item.StoreID != c.GetUint("store_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("this item does not belong to your store"))
		return
	}

	var req struct {
		Name   *string  `json:"name"`
		Price  *float64 `json:"price" binding:"omitempty,gte=0"`
		Status *string  `json:"status" binding:"omitempty,oneof=AVAILABLE OUT_OF_STOCK"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Status != nil {
		item.Status = *req.Status
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.ErrorLogger.Printf("failed to update menu item %d: %v", itemID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem -> DELETE /api/menu/:item_id (owning store only).
// An item referenced by any order line is part of order history and
// must never be hard-deleted; the store marks it OUT_OF_STOCK instead.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}
	if item.StoreID != c.GetUint("store_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("this item does not belong to your store"))
		return
	}

	var orderCount int64
	if err := mc.DB.Model(&models.OrderItem{}).Where("menu_item_id = ?", itemID).Count(&orderCount).Error; err != nil {
		utils.ErrorLogger.Printf("failed to count order history for item %d: %v", itemID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	if orderCount > 0 {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("cannot delete item with order history, set its status to OUT_OF_STOCK instead"))
		return
	}

	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.ErrorLogger.Printf("failed to delete menu item %d: %v", itemID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"item_id": itemID})
}
