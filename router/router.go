package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/backend/controllers"
	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/middlewares"
	"github.com/campuseats/backend/services"
)

func SetupRouter(db *gorm.DB, cache services.Cache, bus *events.Bus) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	otpProvider := services.NewLocalOTPProvider(cache)
	otpService := services.NewOTPService(cache, otpProvider)
	orderService := services.NewOrderService(db, bus)

	authCtrl := controllers.NewAuthController(db, otpService)
	storeCtrl := controllers.NewStoreController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(orderService)
	userCtrl := controllers.NewUserController(db)
	streamCtrl := controllers.NewStreamController(orderService, bus)
	wsCtrl := controllers.NewWSController(bus)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	// ----------------------------------------------------------------
	//                      AUTH (OTP gated)
	// ----------------------------------------------------------------
	auth := api.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter())
	{
		auth.POST("/send-otp", authCtrl.SendOTP)
		auth.POST("/verify-otp", authCtrl.VerifyOTP)
		auth.POST("/signup", authCtrl.Signup)
		auth.POST("/login", authCtrl.Login)
		auth.POST("/refresh", authCtrl.Refresh)
		auth.GET("/me", middlewares.AuthMiddleware(), authCtrl.Me)
	}

	// ----------------------------------------------------------------
	//                      PUBLIC CATALOG
	// ----------------------------------------------------------------
	api.GET("/stores", storeCtrl.GetAllStores)

	stores := api.Group("/stores")
	stores.GET("/:store_id/menu", storeCtrl.GetStoreMenu)

	// Store-private, scoped by the store_id path parameter matching the
	// authenticated store.
	storePrivate := stores.Group("/:store_id")
	storePrivate.Use(middlewares.AuthMiddleware(), middlewares.RequireStore())
	{
		storePrivate.GET("/orders", storeCtrl.GetStoreOrders)
		storePrivate.GET("/orders/watch", streamCtrl.WatchStoreOrders)
		storePrivate.PATCH("/status", storeCtrl.UpdateStoreStatus)
	}

	// ----------------------------------------------------------------
	//                      MENU (store only)
	// ----------------------------------------------------------------
	menu := api.Group("/menu")
	menu.Use(middlewares.AuthMiddleware(), middlewares.RequireStore())
	{
		menu.POST("", menuCtrl.CreateMenuItem)
		menu.PUT("/:item_id", menuCtrl.UpdateMenuItem)
		menu.DELETE("/:item_id", menuCtrl.DeleteMenuItem)
	}

	// ----------------------------------------------------------------
	//                      ORDERS
	// ----------------------------------------------------------------
	orders := api.Group("/orders")
	orders.Use(middlewares.AuthMiddleware())
	{
		orders.POST("", middlewares.RequireCustomer(), orderCtrl.CreateOrder)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.GET("/:order_id/status", orderCtrl.GetOrderStatus)
		orders.GET("/:order_id/watch", streamCtrl.WatchOrder)

		orders.POST("/:order_id/verify", middlewares.RequireStore(), orderCtrl.VerifyOrder)
		orders.PATCH("/:order_id/confirm", middlewares.RequireStore(), orderCtrl.ConfirmOrder)
		orders.PATCH("/:order_id/prepare", middlewares.RequireStore(), orderCtrl.PrepareOrder)
		orders.PATCH("/:order_id/ready", middlewares.RequireStore(), orderCtrl.ReadyOrder)
		orders.PATCH("/:order_id/complete", middlewares.RequireStore(), orderCtrl.CompleteOrder)

		// Cancellation is shared: the service applies the per-role rules.
		orders.PATCH("/:order_id/cancel", orderCtrl.CancelOrder)
	}

	// ----------------------------------------------------------------
	//                      CUSTOMER
	// ----------------------------------------------------------------
	users := api.Group("/users")
	users.Use(middlewares.AuthMiddleware(), middlewares.RequireCustomer())
	{
		users.GET("/orders", userCtrl.GetMyOrders)
	}

	// ----------------------------------------------------------------
	//                      WEBSOCKET
	// ----------------------------------------------------------------
	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/store", wsCtrl.StoreDashboard)
	}

	return r
}
