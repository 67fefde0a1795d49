package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/whatsapp"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MessageHandler struct {
	messageService *services.MessageService
	hub            *services.SSEHub
}

func NewMessageHandler(db *gorm.DB, gateway whatsapp.Gateway, hub *services.SSEHub) *MessageHandler {
	accountRepo := repository.NewWhatsAppAccountRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	contactRepo := repository.NewContactRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	messageService := services.NewMessageService(accountRepo, messageRepo, contactRepo, templateRepo, gateway, hub)
	return &MessageHandler{
		messageService: messageService,
		hub:            hub,
	}
}

// ConnectAccount godoc
// @Summary Connect a WhatsApp account
// @Description Verify provider credentials and store the account with the access token encrypted at rest
// @Tags whatsapp
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConnectAccountRequest true "Connect account request"
// @Success 201 {object} models.WhatsAppAccount
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/whatsapp/connect [post]
func (h *MessageHandler) ConnectAccount(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	account, err := h.messageService.ConnectAccount(c.Request.Context(), userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "failed to verify") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect account", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccounts godoc
// @Summary List connected WhatsApp accounts
// @Description Get the authenticated user's connected WhatsApp accounts
// @Tags whatsapp
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AccountResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/whatsapp/accounts [get]
func (h *MessageHandler) GetAccounts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	accounts, err := h.messageService.GetAccounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get accounts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// DisconnectAccount godoc
// @Summary Disconnect a WhatsApp account
// @Description Remove a connected WhatsApp account
// @Tags whatsapp
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/whatsapp/accounts/{id} [delete]
func (h *MessageHandler) DisconnectAccount(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	accountID := c.Param("id")

	if err := h.messageService.DisconnectAccount(userID, accountID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect account", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account disconnected successfully"})
}

// SendMessage godoc
// @Summary Send a message
// @Description Send an outbound text or template message through a connected account
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendMessageRequest true "Send message request"
// @Success 201 {object} models.Message
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/messages/send [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	message, err := h.messageService.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "not approved") || strings.Contains(err.Error(), "provider rejected") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetMessages godoc
// @Summary List messages
// @Description Get the authenticated user's message history with pagination and filters
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param contact_id query string false "Filter by contact"
// @Param direction query string false "Filter by direction (INBOUND/OUTBOUND)"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, limit := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("limit"))

	query := models.MessageListQuery{
		Page:      page,
		Limit:     limit,
		ContactID: c.Query("contact_id"),
		Direction: c.Query("direction"),
		Status:    c.Query("status"),
	}

	messages, pagination, err := h.messageService.ListMessages(userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages, "pagination": pagination})
}

// GetAnalytics godoc
// @Summary Get message analytics
// @Description Get the message analytics overview: totals, delivery rate, read rate and active contacts
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MessageAnalytics
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/messages/analytics [get]
func (h *MessageHandler) GetAnalytics(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	analytics, err := h.messageService.GetAnalytics(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analytics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// StreamEvents godoc
// @Summary Stream live events
// @Description Open a Server-Sent Events stream of message and campaign updates for the authenticated user
// @Tags messages
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /api/v1/events [get]
func (h *MessageHandler) StreamEvents(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	clientChan := h.hub.RegisterClient(userID)
	defer h.hub.UnregisterClient(userID, clientChan)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-clientChan:
			if !ok {
				return false
			}
			w.Write(msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
