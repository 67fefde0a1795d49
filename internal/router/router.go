package router

import (
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/handlers"
	"github.com/wappdesk/whatsapp-platform-backend/internal/middleware"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/api_key"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/auth"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/whatsapp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Dependencies carries the long-lived services the router shares with
// the background workers.
type Dependencies struct {
	DB              *gorm.DB
	EmailService    *services.EmailService
	RabbitMQService *services.RabbitMQService
	Gateway         whatsapp.Gateway
	Hub             *services.SSEHub
	WhatsAppConfig  *config.WhatsAppConfig
}

// SetupRouter configures the Gin router with all platform routes
func SetupRouter(deps *Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	db := deps.DB
	authService := auth.NewAuthService(db, deps.EmailService)
	apiKeyService := api_key.NewService(db)

	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(db, authService)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(apiKeyService)

	authHandler := handlers.NewAuthHandler(db, deps.EmailService)
	contactHandler := handlers.NewContactHandler(db)
	excelHandler := handlers.NewExcelHandler(db)
	templateHandler := handlers.NewTemplateHandler(db)
	flowHandler := handlers.NewFlowHandler(db)
	campaignHandler := handlers.NewCampaignHandler(db, deps.RabbitMQService)
	retargetHandler := handlers.NewRetargetHandler(db, deps.RabbitMQService)
	messageHandler := handlers.NewMessageHandler(db, deps.Gateway, deps.Hub)
	webhookHandler := handlers.NewWebhookHandler(db, deps.WhatsAppConfig, deps.Hub)
	apiKeyHandler := handlers.NewAPIKeyHandler(db)
	adminHandler := handlers.NewAdminHandler(db, deps.EmailService, deps.RabbitMQService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// Webhook routes are public; the provider authenticates with the
	// verify token handshake instead of a bearer token.
	webhooks := r.Group("/webhooks/whatsapp")
	{
		webhooks.GET("", webhookHandler.VerifyWebhook)
		webhooks.POST("", webhookHandler.ReceiveWebhook)
	}

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authPublic := api.Group("/auth")
		{
			authPublic.POST("/register", authHandler.Register)
			authPublic.POST("/login", authHandler.Login)
			authPublic.POST("/verify-email", authHandler.VerifyEmail)
			authPublic.POST("/forgot-password", authHandler.ForgotPassword)
			authPublic.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes accept either an API key or a bearer token
		protected := api.Group("")
		protected.Use(apiKeyMiddleware.APIKeyAuthMiddleware())
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			// Auth protected routes
			authProtected := protected.Group("/auth")
			{
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.GET("/me", authHandler.GetProfile)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			// Contact routes
			contacts := protected.Group("/contacts")
			{
				contacts.POST("", contactHandler.CreateContact)
				contacts.GET("", contactHandler.GetContacts)
				contacts.POST("/bulk-import", contactHandler.BulkImportContacts)
				contacts.POST("/import", excelHandler.ImportContacts)
				contacts.GET("/export", excelHandler.ExportContacts)
				contacts.GET("/:id", contactHandler.GetContact)
				contacts.PUT("/:id", contactHandler.UpdateContact)
				contacts.DELETE("/:id", contactHandler.DeleteContact)
			}

			// Tag routes
			protected.GET("/tags", contactHandler.GetTags)

			// Template routes
			templates := protected.Group("/templates")
			{
				templates.POST("", templateHandler.CreateTemplate)
				templates.GET("", templateHandler.GetTemplates)
				templates.GET("/:id", templateHandler.GetTemplate)
				templates.PUT("/:id", templateHandler.UpdateTemplate)
				templates.DELETE("/:id", templateHandler.DeleteTemplate)
				templates.POST("/:id/preview", templateHandler.PreviewTemplate)
				templates.POST("/:id/resubmit", templateHandler.ResubmitTemplate)
			}

			// Flow routes
			flows := protected.Group("/flows")
			{
				flows.POST("", flowHandler.CreateFlow)
				flows.GET("", flowHandler.GetFlows)
				flows.GET("/:id", flowHandler.GetFlow)
				flows.PUT("/:id", flowHandler.UpdateFlow)
				flows.DELETE("/:id", flowHandler.DeleteFlow)
				flows.POST("/:id/nodes", flowHandler.AddNode)
				flows.PUT("/:id/nodes/:nodeId", flowHandler.UpdateNode)
				flows.DELETE("/:id/nodes/:nodeId", flowHandler.DeleteNode)
				flows.POST("/:id/edges", flowHandler.ConnectNodes)
				flows.PUT("/:id/active", flowHandler.ActivateFlow)
				flows.POST("/:id/execute", flowHandler.ExecuteFlow)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/launch", campaignHandler.LaunchCampaign)
				campaigns.POST("/:id/pause", campaignHandler.PauseCampaign)
				campaigns.GET("/:id/metrics", campaignHandler.GetCampaignMetrics)
			}

			// Retarget campaign routes
			retarget := protected.Group("/retarget-campaigns")
			{
				retarget.POST("", retargetHandler.CreateRetargetCampaign)
				retarget.GET("", retargetHandler.GetRetargetCampaigns)
				retarget.POST("/preview", retargetHandler.PreviewRetargetAudience)
				retarget.GET("/:id", retargetHandler.GetRetargetCampaign)
				retarget.PUT("/:id", retargetHandler.UpdateRetargetCampaign)
				retarget.DELETE("/:id", retargetHandler.DeleteRetargetCampaign)
				retarget.POST("/:id/execute", retargetHandler.ExecuteRetargetCampaign)
			}

			// WhatsApp account routes
			accounts := protected.Group("/whatsapp/accounts")
			{
				accounts.POST("", messageHandler.ConnectAccount)
				accounts.GET("", messageHandler.GetAccounts)
				accounts.DELETE("/:id", messageHandler.DisconnectAccount)
			}

			// Message routes
			messages := protected.Group("/messages")
			{
				messages.POST("", messageHandler.SendMessage)
				messages.GET("", messageHandler.GetMessages)
				messages.GET("/analytics", messageHandler.GetAnalytics)
			}

			// Live event stream
			protected.GET("/events", messageHandler.StreamEvents)

			// API key routes
			apiKeys := protected.Group("/api-keys")
			{
				apiKeys.POST("", apiKeyHandler.CreateAPIKey)
				apiKeys.GET("", apiKeyHandler.GetAPIKeys)
				apiKeys.POST("/:id/revoke", apiKeyHandler.RevokeAPIKey)
				apiKeys.DELETE("/:id", apiKeyHandler.DeleteAPIKey)
			}

			// Admin routes (requires admin privileges)
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnlyMiddleware())
			{
				admin.GET("/users", adminHandler.GetUsers)
				admin.PUT("/users/:id/active", adminHandler.SetUserActive)
				admin.POST("/users/:id/reset-password", adminHandler.ResetUserPassword)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/templates/pending", adminHandler.GetPendingTemplates)
				admin.PUT("/templates/:id/status", adminHandler.ReviewTemplate)
				admin.GET("/campaigns", adminHandler.GetAllCampaigns)
			}
		}
	}

	return r
}
