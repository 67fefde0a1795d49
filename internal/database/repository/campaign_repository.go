package repository

import (
	"fmt"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by ID (execution paths)
func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Preload("Template").First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByUserIDAndID retrieves a campaign owned by a user
func (r *CampaignRepository) GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("user_id = ? AND id = ?", userID, campaignID).
		Preload("Template").
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// List retrieves a page of campaigns for a user
func (r *CampaignRepository) List(userID string, page, limit int, status string) ([]*models.Campaign, int64, error) {
	base := r.db.Model(&models.Campaign{}).Where("user_id = ?", userID)
	if status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var campaigns []*models.Campaign
	err := base.Preload("Template").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, total, err
}

// Update updates a campaign
func (r *CampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// UpdateStatus sets a campaign's status
func (r *CampaignRepository) UpdateStatus(campaignID, status string) error {
	return r.db.Model(&models.Campaign{}).Where("id = ?", campaignID).
		Update("status", status).Error
}

// IncrementMetric atomically bumps one of the delivery counters. Counters are
// monotonically non-decreasing; there is no decrement path.
func (r *CampaignRepository) IncrementMetric(campaignID, metric string) error {
	switch metric {
	case "sent", "delivered", "read", "failed":
	default:
		return fmt.Errorf("unknown campaign metric %q", metric)
	}
	return r.db.Model(&models.Campaign{}).Where("id = ?", campaignID).
		UpdateColumn(metric, gorm.Expr(metric+" + 1")).Error
}

// DeleteByUserIDAndID deletes a campaign owned by a user
func (r *CampaignRepository) DeleteByUserIDAndID(userID, campaignID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, campaignID).Delete(&models.Campaign{}).Error
}

// GetAll retrieves all campaigns (admin only)
func (r *CampaignRepository) GetAll() ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Preload("Template").Find(&campaigns).Error
	return campaigns, err
}
