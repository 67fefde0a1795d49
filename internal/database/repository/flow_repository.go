package repository

import (
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type FlowRepository struct {
	db *gorm.DB
}

func NewFlowRepository(db *gorm.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

// Create creates a new flow
func (r *FlowRepository) Create(flow *models.Flow) error {
	return r.db.Create(flow).Error
}

// GetByUserIDAndID retrieves a flow owned by a user
func (r *FlowRepository) GetByUserIDAndID(userID, flowID string) (*models.Flow, error) {
	var flow models.Flow
	err := r.db.Where("user_id = ? AND id = ?", userID, flowID).First(&flow).Error
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// List retrieves a page of flows for a user
func (r *FlowRepository) List(userID string, page, limit int, search string) ([]*models.Flow, int64, error) {
	base := r.db.Model(&models.Flow{}).Where("user_id = ?", userID)

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var flows []*models.Flow
	err := base.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&flows).Error
	return flows, total, err
}

// Update updates a flow
func (r *FlowRepository) Update(flow *models.Flow) error {
	return r.db.Save(flow).Error
}

// DeleteByUserIDAndID deletes a flow owned by a user
func (r *FlowRepository) DeleteByUserIDAndID(userID, flowID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, flowID).Delete(&models.Flow{}).Error
}

// CreateExecution records a requested flow run
func (r *FlowRepository) CreateExecution(execution *models.FlowExecution) error {
	return r.db.Create(execution).Error
}
