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

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(db *gorm.DB) *ContactHandler {
	contactRepo := repository.NewContactRepository(db)
	tagRepo := repository.NewTagRepository(db)

	return &ContactHandler{
		contactService: services.NewContactService(contactRepo, tagRepo),
	}
}

// CreateContact godoc
// @Summary Create a new contact
// @Description Create a new contact in the authenticated user's address book
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateContactRequest true "Create contact request"
// @Success 201 {object} models.Contact
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	contact, err := h.contactService.CreateContact(userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "required") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// GetContacts godoc
// @Summary List contacts
// @Description Get the authenticated user's contacts with pagination and filters
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Search by name, phone or email"
// @Param tag query string false "Filter by tag name"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts [get]
func (h *ContactHandler) GetContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, limit := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("limit"))

	query := models.ContactListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Status: c.Query("status"),
	}

	contacts, pagination, err := h.contactService.ListContacts(userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contacts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contacts, "pagination": pagination})
}

// GetContact godoc
// @Summary Get a contact by ID
// @Description Get a specific contact owned by the authenticated user
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	contactID := c.Param("id")

	contact, err := h.contactService.GetContact(userID, contactID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contact", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contact)
}

// UpdateContact godoc
// @Summary Update a contact
// @Description Update a contact's name, email, status, tags or custom fields
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Param request body models.UpdateContactRequest true "Update contact request"
// @Success 200 {object} models.Contact
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	contactID := c.Param("id")

	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	contact, err := h.contactService.UpdateContact(userID, contactID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary Delete a contact
// @Description Delete a contact owned by the authenticated user
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	contactID := c.Param("id")

	if err := h.contactService.DeleteContact(userID, contactID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted successfully"})
}

// BulkImportContacts godoc
// @Summary Bulk import contacts
// @Description Import a batch of contacts; duplicate and invalid rows are skipped and reported
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BulkImportRequest true "Bulk import request"
// @Success 200 {object} models.BulkImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/bulk-import [post]
func (h *ContactHandler) BulkImportContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, err := h.contactService.BulkImport(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import contacts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTags godoc
// @Summary List tags
// @Description Get all contact tags
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Tag
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/tags [get]
func (h *ContactHandler) GetTags(c *gin.Context) {
	tags, err := h.contactService.GetTags()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tags", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tags)
}
