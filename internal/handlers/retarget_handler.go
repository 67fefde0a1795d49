package handlers

import (
	"net/http"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RetargetHandler struct {
	retargetService *services.RetargetService
}

func NewRetargetHandler(db *gorm.DB, rabbitMQService *services.RabbitMQService) *RetargetHandler {
	retargetRepo := repository.NewRetargetCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	accountRepo := repository.NewWhatsAppAccountRepository(db)

	retargetService := services.NewRetargetService(retargetRepo, contactRepo, templateRepo, accountRepo, rabbitMQService)
	return &RetargetHandler{
		retargetService: retargetService,
	}
}

// CreateRetargetCampaign godoc
// @Summary Create a retargeting campaign
// @Description Create a campaign whose audience is computed from filters over contacts and messages
// @Tags retargeting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateRetargetCampaignRequest true "Create retarget campaign request"
// @Success 201 {object} models.RetargetCampaign
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns [post]
func (h *RetargetHandler) CreateRetargetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateRetargetCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.retargetService.CreateCampaign(userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "not approved") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create retarget campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// GetRetargetCampaigns godoc
// @Summary List retargeting campaigns
// @Description Get the authenticated user's retargeting campaigns with pagination
// @Tags retargeting
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns [get]
func (h *RetargetHandler) GetRetargetCampaigns(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, limit := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("limit"))

	campaigns, pagination, err := h.retargetService.ListCampaigns(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get retarget campaigns", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": campaigns, "pagination": pagination})
}

// GetRetargetCampaign godoc
// @Summary Get a retargeting campaign by ID
// @Description Get a specific retargeting campaign owned by the authenticated user
// @Tags retargeting
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.RetargetCampaign
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns/{id} [get]
func (h *RetargetHandler) GetRetargetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	campaign, err := h.retargetService.GetCampaign(userID, campaignID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Retarget campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get retarget campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// UpdateRetargetCampaign godoc
// @Summary Update a retargeting campaign
// @Description Update a draft retargeting campaign; the target count is recomputed when filters change
// @Tags retargeting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.UpdateRetargetCampaignRequest true "Update retarget campaign request"
// @Success 200 {object} models.RetargetCampaign
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns/{id} [put]
func (h *RetargetHandler) UpdateRetargetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.UpdateRetargetCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	campaign, err := h.retargetService.UpdateCampaign(userID, campaignID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "retarget campaign not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Retarget campaign not found"})
			return
		}
		if strings.Contains(err.Error(), "cannot update") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "not approved") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update retarget campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DeleteRetargetCampaign godoc
// @Summary Delete a retargeting campaign
// @Description Delete a retargeting campaign that is not currently running
// @Tags retargeting
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns/{id} [delete]
func (h *RetargetHandler) DeleteRetargetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	if err := h.retargetService.DeleteCampaign(userID, campaignID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Retarget campaign not found"})
			return
		}
		if strings.Contains(err.Error(), "active") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete retarget campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Retarget campaign deleted successfully"})
}

// PreviewRetargetAudience godoc
// @Summary Preview a retargeting audience
// @Description Evaluate filters and return the matching contacts without sending anything
// @Tags retargeting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RetargetFilters true "Filters"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns/preview [post]
func (h *RetargetHandler) PreviewRetargetAudience(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var filters models.RetargetFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	contacts, err := h.retargetService.PreviewAudience(userID, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute audience", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "count": len(contacts)})
}

// ExecuteRetargetCampaign godoc
// @Summary Execute a retargeting campaign
// @Description Enqueue the campaign for dispatch; the audience is resolved at execution time and already reached contacts are skipped
// @Tags retargeting
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 202 {object} models.RetargetCampaign
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/retarget-campaigns/{id}/execute [post]
func (h *RetargetHandler) ExecuteRetargetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	campaign, err := h.retargetService.Execute(userID, campaignID)
	if err != nil {
		if strings.Contains(err.Error(), "retarget campaign not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Retarget campaign not found"})
			return
		}
		if strings.Contains(err.Error(), "already active") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "no connected") || strings.Contains(err.Error(), "not approved") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "queue") {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute retarget campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, campaign)
}
