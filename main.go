package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/campuseats/backend/config"
	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/middlewares"
	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/router"
	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Redis holds OTP rate-limit counters and pending signup payloads.
	// Without it those survive only for the process lifetime, which is
	// acceptable in development.
	var cache services.Cache
	if rdb, err := config.InitRedis(); err != nil {
		utils.ErrorLogger.Printf("Redis unavailable (%v), falling back to in-memory cache", err)
		cache = services.NewMemoryCache()
	} else {
		cache = services.NewRedisCache(rdb)
	}

	bus := events.NewBus()

	r := router.SetupRouter(db, cache, bus)

	// Coarse per-IP limit across the whole API
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Customer{},
		&models.Store{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
