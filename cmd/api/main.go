package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/database"
	"github.com/goldlinerides/goldline-backend/internal/handlers"
	"github.com/goldlinerides/goldline-backend/internal/middleware"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/goldlinerides/goldline-backend/internal/services"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Firebase is optional; push notifications are skipped when it is
	// not configured.
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	events := services.NewEventProducerFromEnv()
	defer events.Close()

	hub := services.NewHub(&handlers.ChatBackend{DB: db})
	go hub.Run()

	// Relay cross-instance fan-out from Redis into the local hub.
	bridge := services.NewBridge(hub, services.RedisClient)
	go bridge.Run(context.Background())

	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))
	r.Use(observability.GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// Public guest booking: no account required, lookup by tracking
		// code only.
		guest := api.Group("/guest")
		{
			guest.POST("/rides", handlers.CreateGuestRide(db, hub, events))
			guest.GET("/rides/:trackingCode", handlers.GetGuestRide(db))
		}

		api.GET("/drivers/available", handlers.GetAvailableDrivers(db))

		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			rides := protected.Group("/rides")
			{
				rides.POST("", middleware.RequireUserType(string(models.UserTypeRider)), handlers.CreateRide(db, hub, events))
				rides.POST("/schedule", middleware.RequireUserType(string(models.UserTypeRider)), handlers.ScheduleRide(db, hub, events))
				rides.GET("", middleware.RequireUserType(string(models.UserTypeRider)), handlers.GetRiderRides(db))
				rides.POST("/:rideId/cancel", handlers.CancelRide(db, hub, events))
				rides.POST("/:rideId/rate", middleware.RequireUserType(string(models.UserTypeRider)), handlers.RateRide(db))

				rides.GET("/:rideId", handlers.GetRide(db))
				rides.PATCH("/:rideId/status", handlers.UpdateRideStatus(db, hub, events))
				rides.GET("/:rideId/messages", handlers.GetMessages(db))
				rides.POST("/:rideId/messages", handlers.SendMessage(db, hub))
				rides.POST("/:rideId/messages/read", handlers.MarkMessagesRead(db))
			}

			protected.GET("/threads", handlers.GetThreads(db))

			driver := protected.Group("/driver")
			driver.Use(middleware.RequireUserType(string(models.UserTypeDriver)))
			{
				driver.GET("/rides", handlers.GetDriverRides(db))
				driver.POST("/rides/:rideId/accept", handlers.AcceptRide(db, hub, events))
				driver.POST("/rides/:rideId/decline", handlers.DeclineRide(db, hub, events))
				driver.POST("/rides/:rideId/start", handlers.StartRide(db, hub, events))
				driver.POST("/rides/:rideId/complete", handlers.CompleteRide(db, hub, events))
				driver.POST("/rides/:rideId/cancel", handlers.CancelRide(db, hub, events))
				driver.POST("/availability", handlers.UpdateDriverAvailability(db, hub))
				driver.GET("/status", handlers.GetDriverStatus(db))
				driver.GET("/metrics", handlers.GetDriverMetrics(db))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterDeviceToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveDeviceToken(db))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
