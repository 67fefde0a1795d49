package handlers

import (
	"net/http"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/api_key"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type APIKeyHandler struct {
	apiKeyService *api_key.Service
}

func NewAPIKeyHandler(db *gorm.DB) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: api_key.NewService(db),
	}
}

// CreateAPIKey godoc
// @Summary Create an API key
// @Description Generate a named API key for programmatic access; the key is only returned once
// @Tags api-keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateAPIKeyRequest true "API key request"
// @Success 201 {object} models.APIKey
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/api-keys [post]
func (h *APIKeyHandler) CreateAPIKey(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	apiKey, err := h.apiKeyService.GenerateAPIKey(userID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, apiKey)
}

// GetAPIKeys godoc
// @Summary List API keys
// @Description List the authenticated user's API keys
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/api-keys [get]
func (h *APIKeyHandler) GetAPIKeys(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	keys, err := h.apiKeyService.ListAPIKeys(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list API keys", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": keys, "total": len(keys)})
}

// RevokeAPIKey godoc
// @Summary Revoke an API key
// @Description Deactivate an API key without deleting it
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param id path string true "API key ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/api-keys/{id}/revoke [post]
func (h *APIKeyHandler) RevokeAPIKey(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	keyID := c.Param("id")

	if err := h.apiKeyService.RevokeAPIKey(userID, keyID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked successfully"})
}

// DeleteAPIKey godoc
// @Summary Delete an API key
// @Description Permanently delete an API key
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param id path string true "API key ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/api-keys/{id} [delete]
func (h *APIKeyHandler) DeleteAPIKey(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	keyID := c.Param("id")

	if err := h.apiKeyService.DeleteAPIKey(userID, keyID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted successfully"})
}
