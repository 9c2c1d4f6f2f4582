package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinic-app-server/internal/config"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/notifications"
	"clinic-app-server/internal/routes"
	"clinic-app-server/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, relying on environment: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Create a DatabaseConfig for models
	modelDbConfig := models.DatabaseConfig{
		DSN: cfg.Database.DSN,
	}

	// Initialize database connection
	db, err := models.InitDB(modelDbConfig)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Start the WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Outbound email; a no-op when SMTP is not configured
	mailer := notifications.NewMailer(cfg.Mailer)

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes - passing DB and config to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, hub, mailer)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
