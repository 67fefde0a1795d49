package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	authService     *auth.AuthService
	templateService *services.TemplateService
	campaignService *services.CampaignService
}

func NewAdminHandler(db *gorm.DB, emailService *services.EmailService, rabbitMQService *services.RabbitMQService) *AdminHandler {
	return &AdminHandler{
		authService:     auth.NewAuthService(db, emailService),
		templateService: services.NewTemplateService(repository.NewTemplateRepository(db)),
		campaignService: services.NewCampaignService(
			repository.NewCampaignRepository(db),
			repository.NewCampaignRecipientRepository(db),
			repository.NewTemplateRepository(db),
			repository.NewContactRepository(db),
			rabbitMQService,
		),
	}
}

// GetUsers godoc
// @Summary List all users
// @Description List every user account on the platform
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.authService.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users, "total": len(users)})
}

// SetUserActive godoc
// @Summary Activate or deactivate a user
// @Description Toggle a user's active flag; deactivation revokes all of the user's sessions
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.SetUserActiveRequest true "Active flag"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id}/active [put]
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID := c.Param("id")

	var req models.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	user, err := h.authService.SetUserActive(userID, req.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ResetUserPassword godoc
// @Summary Reset a user's password
// @Description Set a new password for any user without the current one; all of the user's sessions are revoked
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.AdminResetPasswordRequest true "New password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id}/reset-password [post]
func (h *AdminHandler) ResetUserPassword(c *gin.Context) {
	userID := c.Param("id")

	var req models.AdminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.authService.AdminResetPassword(userID, req.NewPassword); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Remove a user account; all of the user's sessions are revoked
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	if err := h.authService.DeleteUser(userID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetPendingTemplates godoc
// @Summary List templates awaiting review
// @Description List all templates in pending status across all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/templates/pending [get]
func (h *AdminHandler) GetPendingTemplates(c *gin.Context) {
	templates, err := h.templateService.GetPendingTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pending templates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates, "total": len(templates)})
}

// ReviewTemplate godoc
// @Summary Approve or reject a template
// @Description Apply a review decision to a pending template; rejection requires a reason
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body models.UpdateTemplateStatusRequest true "Review decision"
// @Success 200 {object} models.Template
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/admin/templates/{id}/status [put]
func (h *AdminHandler) ReviewTemplate(c *gin.Context) {
	templateID := c.Param("id")

	var req models.UpdateTemplateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	if req.Status == models.TemplateStatusRejected && strings.TrimSpace(req.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection requires a reason"})
		return
	}

	template, err := h.templateService.ReviewTemplate(templateID, req.Status, req.Reason)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, models.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review template", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetAllCampaigns godoc
// @Summary List all campaigns
// @Description List campaigns across all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/campaigns [get]
func (h *AdminHandler) GetAllCampaigns(c *gin.Context) {
	campaigns, err := h.campaignService.GetAllCampaigns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": campaigns, "total": len(campaigns)})
}
