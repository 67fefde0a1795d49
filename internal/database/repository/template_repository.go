package repository

import (
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create creates a new template
func (r *TemplateRepository) Create(template *models.Template) error {
	return r.db.Create(template).Error
}

// GetByID retrieves a template by ID (admin paths)
func (r *TemplateRepository) GetByID(id string) (*models.Template, error) {
	var template models.Template
	err := r.db.First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetByUserIDAndID retrieves a template owned by a user
func (r *TemplateRepository) GetByUserIDAndID(userID, templateID string) (*models.Template, error) {
	var template models.Template
	err := r.db.Where("user_id = ? AND id = ?", userID, templateID).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ExistsByUserIDAndName checks for a duplicate template name within a tenant
func (r *TemplateRepository) ExistsByUserIDAndName(userID, name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Template{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error
	return count > 0, err
}

// List retrieves a page of templates matching the query filters
func (r *TemplateRepository) List(userID string, query models.TemplateListQuery) ([]*models.Template, int64, error) {
	base := r.db.Model(&models.Template{}).Where("user_id = ?", userID)

	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}
	if query.Category != "" {
		base = base.Where("category = ?", query.Category)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templates []*models.Template
	err := base.Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&templates).Error
	return templates, total, err
}

// Update updates a template
func (r *TemplateRepository) Update(template *models.Template) error {
	return r.db.Save(template).Error
}

// DeleteByUserIDAndID deletes a template owned by a user
func (r *TemplateRepository) DeleteByUserIDAndID(userID, templateID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, templateID).Delete(&models.Template{}).Error
}

// GetAllByStatus retrieves all templates in a status across tenants (admin only)
func (r *TemplateRepository) GetAllByStatus(status string) ([]*models.Template, error) {
	var templates []*models.Template
	query := r.db.Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&templates).Error
	return templates, err
}
