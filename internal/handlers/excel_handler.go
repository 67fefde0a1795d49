package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/excel"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ExcelHandler struct {
	excelService *excel.Service
}

func NewExcelHandler(db *gorm.DB) *ExcelHandler {
	return &ExcelHandler{
		excelService: excel.NewExcelService(
			repository.NewContactRepository(db),
			repository.NewTagRepository(db),
		),
	}
}

// ExportContacts godoc
// @Summary Export contacts as a spreadsheet
// @Description Download all of the user's contacts as an xlsx file
// @Tags contacts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/export [get]
func (h *ExcelHandler) ExportContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	file, err := h.excelService.ExportContacts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export contacts", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("contacts-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		logrus.Errorf("Failed to stream contact export: %v", err)
	}
}

// ImportContacts godoc
// @Summary Import contacts from a spreadsheet
// @Description Upload an xlsx file of contacts; rows with a missing or duplicate phone are reported, not fatal
// @Tags contacts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "xlsx file"
// @Success 200 {object} models.BulkImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contacts/import [post]
func (h *ExcelHandler) ImportContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file upload is required", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.excelService.ImportContacts(userID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import contacts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
