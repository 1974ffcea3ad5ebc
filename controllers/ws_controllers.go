package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	Bus *events.Bus
}

func NewWSController(bus *events.Bus) *WSController {
	return &WSController{Bus: bus}
}

type wsMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// StoreDashboard -> GET /ws/store
// Websocket alternative to the SSE store feed, for dashboard clients
// that keep a single duplex connection. Carries the same store-keyed
// events; pings every 30 seconds keep the connection alive.
func (wc *WSController) StoreDashboard(c *gin.Context) {
	if c.GetString("role") != utils.RoleStore {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	storeID := c.GetUint("store_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	newSub := wc.Bus.Subscribe(events.NewOrderKey(storeID))
	updateSub := wc.Bus.Subscribe(events.StoreUpdateKey(storeID))
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case payload, open := <-newSub.C:
				if !open {
					return
				}
				if err := conn.WriteJSON(wsMessage{Event: events.TypeNewOrder, Data: payload}); err != nil {
					return
				}
			case payload, open := <-updateSub.C:
				if !open {
					return
				}
				if err := conn.WriteJSON(wsMessage{Event: events.TypeOrderUpdate, Data: payload}); err != nil {
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(10 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	// Block until the client goes away, then tear everything down so
	// no listener registration outlives the connection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	newSub.Close()
	updateSub.Close()
	conn.Close()
}
