package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/utils"
)

type StoreController struct {
	DB *gorm.DB
}

func NewStoreController(db *gorm.DB) *StoreController {
	return &StoreController{DB: db}
}

// GetAllStores -> public store listing
func (sc *StoreController) GetAllStores(c *gin.Context) {
	var stores []models.Store
	if err := sc.DB.Find(&stores).Error; err != nil {
		utils.ErrorLogger.Printf("failed to list stores: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of stores", stores)
}

// GetStoreMenu -> public menu of one store
func (sc *StoreController) GetStoreMenu(c *gin.Context) {
	storeID, ok := parseIDParam(c, "store_id")
	if !ok {
		return
	}

	var store models.Store
	if err := sc.DB.First(&store, storeID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("store not found"))
		return
	}

	var items []models.MenuItem
	if err := sc.DB.Where("store_id = ?", storeID).Find(&items).Error; err != nil {
		utils.ErrorLogger.Printf("failed to list menu for store %d: %v", storeID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store menu", items)
}

// GetStoreOrders -> the authenticated store's order feed
func (sc *StoreController) GetStoreOrders(c *gin.Context) {
	storeID, ok := parseIDParam(c, "store_id")
	if !ok {
		return
	}
	if storeID != c.GetUint("store_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var orders []models.Order
	err := sc.DB.Preload("OrderItems.MenuItem").
		Preload("Customer").
		Where("store_id = ?", storeID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		utils.ErrorLogger.Printf("failed to list orders for store %d: %v", storeID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store orders", orders)
}

// UpdateStoreStatus -> OPEN/CLOSED toggle by the store itself
func (sc *StoreController) UpdateStoreStatus(c *gin.Context) {
	storeID, ok := parseIDParam(c, "store_id")
	if !ok {
		return
	}
	if storeID != c.GetUint("store_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=OPEN CLOSED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var store models.Store
	if err := sc.DB.First(&store, storeID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("store not found"))
		return
	}

	store.Status = req.Status
	if err := sc.DB.Save(&store).Error; err != nil {
		utils.ErrorLogger.Printf("failed to update store %d status: %v", storeID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Store status updated to "+store.Status, store)
}
