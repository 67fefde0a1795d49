package repository

import (
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type RetargetCampaignRepository struct {
	db *gorm.DB
}

func NewRetargetCampaignRepository(db *gorm.DB) *RetargetCampaignRepository {
	return &RetargetCampaignRepository{db: db}
}

// Create creates a new retargeting campaign
func (r *RetargetCampaignRepository) Create(campaign *models.RetargetCampaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a retargeting campaign by id, regardless of owner.
// Used by the dispatcher, which authenticates through the queue instead.
func (r *RetargetCampaignRepository) GetByID(campaignID string) (*models.RetargetCampaign, error) {
	var campaign models.RetargetCampaign
	err := r.db.Where("id = ?", campaignID).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByUserIDAndID retrieves a retargeting campaign owned by a user
func (r *RetargetCampaignRepository) GetByUserIDAndID(userID, campaignID string) (*models.RetargetCampaign, error) {
	var campaign models.RetargetCampaign
	err := r.db.Where("user_id = ? AND id = ?", userID, campaignID).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List retrieves a page of retargeting campaigns for a user
func (r *RetargetCampaignRepository) List(userID string, page, limit int) ([]*models.RetargetCampaign, int64, error) {
	base := r.db.Model(&models.RetargetCampaign{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var campaigns []*models.RetargetCampaign
	err := base.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, total, err
}

// Update updates a retargeting campaign
func (r *RetargetCampaignRepository) Update(campaign *models.RetargetCampaign) error {
	return r.db.Save(campaign).Error
}

// DeleteByUserIDAndID deletes a retargeting campaign owned by a user
func (r *RetargetCampaignRepository) DeleteByUserIDAndID(userID, campaignID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, campaignID).Delete(&models.RetargetCampaign{}).Error
}
