package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/docs"
	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/database"
	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/router"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/auth"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/whatsapp"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title WappDesk Platform API
// @version 1.0
// @description Multi-tenant WhatsApp business messaging platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@wappdesk.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>") or `ApiKey ` followed by your API key (e.g. "ApiKey <key>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Set Swagger base path dynamically
	basePath := getEnv("BASE_PATH", "/")
	docs.SwaggerInfo.BasePath = basePath

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize email service
	emailService := services.NewEmailService(config.LoadSMTPConfig())

	// Initialize auth service and bootstrap admin
	authService := auth.NewAuthService(db, emailService)
	if err := authService.CreateAdminUser(); err != nil {
		logrus.Warnf("Failed to create admin user: %v", err)
	}

	// WhatsApp Cloud API gateway
	waConfig := config.LoadWhatsAppConfig()
	gateway := whatsapp.NewClient(waConfig)

	// Create SSE Hub (shared by HTTP handlers and background workers)
	sseHub := services.NewSSEHub()

	// Initialize RabbitMQ service and start the campaign dispatcher
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()

		dispatcher := services.NewCampaignDispatcher(
			repository.NewCampaignRepository(db),
			repository.NewCampaignRecipientRepository(db),
			repository.NewRetargetCampaignRepository(db),
			repository.NewRetargetRecipientRepository(db),
			repository.NewTemplateRepository(db),
			repository.NewContactRepository(db),
			repository.NewWhatsAppAccountRepository(db),
			repository.NewMessageRepository(db),
			rabbitMQService,
			gateway,
			sseHub,
		)
		if err := dispatcher.Start(); err != nil {
			logrus.Warnf("Failed to start campaign dispatcher: %v", err)
		} else {
			logrus.Info("Campaign dispatcher started")
			defer dispatcher.Stop()
		}
	}

	// Expired session cleanup
	sessionCleanup := auth.NewSessionCleanupService(db)
	sessionCleanup.Start()
	defer sessionCleanup.Stop()

	// Initialize router
	r := router.SetupRouter(&router.Dependencies{
		DB:              db,
		EmailService:    emailService,
		RabbitMQService: rabbitMQService,
		Gateway:         gateway,
		Hub:             sseHub,
		WhatsAppConfig:  waConfig,
	})

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
