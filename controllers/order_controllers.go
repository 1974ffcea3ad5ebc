package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> POST /api/orders (customer only).
// The response carries the priced order, its line items and the
// 4-digit pickup code the customer relays to the store.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		StoreID   uint                      `json:"store_id" binding:"required"`
		PaymentID *string                   `json:"payment_id"`
		Items     []services.OrderItemInput `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.GetUint("customer_id"), req.StoreID, req.PaymentID, req.Items)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order placed successfully", order)
}

// GetOrderByID -> GET /api/orders/:order_id (owner customer or store)
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if !services.CanView(currentActor(c), order) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOrderStatus -> GET /api/orders/:order_id/status
func (oc *OrderController) GetOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if !services.CanView(currentActor(c), order) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status", gin.H{
		"order_id": order.ID,
		"status":   order.Status,
	})
}

// VerifyOrder -> POST /api/orders/:order_id/verify (store only)
func (oc *OrderController) VerifyOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	var req struct {
		OrderOTP string `json:"order_otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.VerifyOrder(currentActor(c), orderID, req.OrderOTP)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order verified", order)
}

// ConfirmOrder -> PATCH /api/orders/:order_id/confirm (store only)
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	oc.applyTransition(c, oc.Orders.ConfirmOrder, "Order confirmed")
}

// PrepareOrder -> PATCH /api/orders/:order_id/prepare (store only)
func (oc *OrderController) PrepareOrder(c *gin.Context) {
	oc.applyTransition(c, oc.Orders.PrepareOrder, "Order preparing")
}

// ReadyOrder -> PATCH /api/orders/:order_id/ready (store only)
func (oc *OrderController) ReadyOrder(c *gin.Context) {
	oc.applyTransition(c, oc.Orders.ReadyOrder, "Order ready")
}

// CompleteOrder -> PATCH /api/orders/:order_id/complete (store only)
func (oc *OrderController) CompleteOrder(c *gin.Context) {
	oc.applyTransition(c, oc.Orders.CompleteOrder, "Order completed")
}

// CancelOrder -> PATCH /api/orders/:order_id/cancel (owner customer or store)
func (oc *OrderController) CancelOrder(c *gin.Context) {
	oc.applyTransition(c, oc.Orders.CancelOrder, "Order cancelled")
}

func (oc *OrderController) applyTransition(
	c *gin.Context,
	transition func(services.Actor, uint) (*models.Order, error),
	message string,
) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	order, err := transition(currentActor(c), orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, order)
}
