package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

// keepAliveInterval spaces the heartbeat events that keep idle stream
// connections from being torn down by proxies.
const keepAliveInterval = 30 * time.Second

type StreamController struct {
	Orders *services.OrderService
	Bus    *events.Bus
}

func NewStreamController(orders *services.OrderService, bus *events.Bus) *StreamController {
	return &StreamController{Orders: orders, Bus: bus}
}

func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// WatchOrder -> GET /api/orders/:order_id/watch
// Long-lived status stream for one order, gated by ownership. The loop
// ends when the client disconnects (request context cancelled), which
// releases the subscription and stops the keep-alive timer.
func (tc *StreamController) WatchOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	order, err := tc.Orders.GetOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if !services.CanView(currentActor(c), order) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	sub := tc.Bus.Subscribe(events.OrderUpdateKey(orderID))
	defer sub.Close()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	sseHeaders(c)

	// Current status first, so the client does not start blind.
	c.SSEvent("order_update", events.StatusUpdate{OrderID: order.ID, Status: order.Status})
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case payload, open := <-sub.C:
			if !open {
				return
			}
			update, isUpdate := payload.(events.StatusUpdate)
			if !isUpdate || update.OrderID != orderID {
				// Key collision with a store feed; not ours.
				continue
			}
			c.SSEvent("order_update", update)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("keep_alive", "ping")
			c.Writer.Flush()
		}
	}
}

// WatchStoreOrders -> GET /api/stores/:store_id/orders/watch
// Store dashboard feed: new orders plus every status transition of the
// store's orders.
func (tc *StreamController) WatchStoreOrders(c *gin.Context) {
	storeID, ok := parseIDParam(c, "store_id")
	if !ok {
		return
	}
	if storeID != c.GetUint("store_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	newSub := tc.Bus.Subscribe(events.NewOrderKey(storeID))
	defer newSub.Close()
	updateSub := tc.Bus.Subscribe(events.StoreUpdateKey(storeID))
	defer updateSub.Close()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	sseHeaders(c)
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case payload, open := <-newSub.C:
			if !open {
				return
			}
			if order, isOrder := payload.(*models.Order); isOrder {
				c.SSEvent("new_order", gin.H{
					"type":  events.TypeNewOrder,
					"order": order,
				})
				c.Writer.Flush()
			}
		case payload, open := <-updateSub.C:
			if !open {
				return
			}
			if update, isUpdate := payload.(events.StatusUpdate); isUpdate {
				c.SSEvent("order_update", gin.H{
					"type":         events.TypeOrderUpdate,
					"order_id":     update.OrderID,
					"order_status": update.Status,
				})
				c.Writer.Flush()
			}
		case <-ticker.C:
			c.SSEvent("keep_alive", "ping")
			c.Writer.Flush()
		}
	}
}
