package handlers

import (
	"net/http"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
	verifyToken    string
}

func NewWebhookHandler(db *gorm.DB, cfg *config.WhatsAppConfig, hub *services.SSEHub) *WebhookHandler {
	accountRepo := repository.NewWhatsAppAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	webhookService := services.NewWebhookService(accountRepo, contactRepo, messageRepo, campaignRepo, hub)
	return &WebhookHandler{
		webhookService: webhookService,
		verifyToken:    cfg.WebhookVerifyToken,
	}
}

// VerifyWebhook godoc
// @Summary Webhook verification handshake
// @Description Respond to the WhatsApp Cloud API subscription handshake with the raw challenge
// @Tags webhook
// @Produce plain
// @Param hub.mode query string true "Subscription mode"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string "challenge"
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /webhooks/whatsapp [get]
func (h *WebhookHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" || challenge == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing verification parameters"})
		return
	}

	if mode != "subscribe" || token != h.verifyToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
		return
	}

	// The provider expects the raw challenge back, not JSON.
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook godoc
// @Summary Receive webhook events
// @Description Process inbound messages and delivery status callbacks from the WhatsApp Cloud API
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /webhooks/whatsapp [post]
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": err.Error()})
		return
	}

	if payload.Object != "whatsapp_business_account" {
		logrus.Debugf("Ignoring webhook for object %q", payload.Object)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	// Always 200 once the payload parses; the provider retries non-2xx
	// deliveries and per-item failures are already isolated and logged.
	h.webhookService.ProcessPayload(&payload)
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
