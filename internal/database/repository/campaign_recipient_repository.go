package repository

import (
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type CampaignRecipientRepository struct {
	db *gorm.DB
}

func NewCampaignRecipientRepository(db *gorm.DB) *CampaignRecipientRepository {
	return &CampaignRecipientRepository{db: db}
}

// Exists reports whether a dispatch marker already exists for the pair
func (r *CampaignRecipientRepository) Exists(campaignID, contactID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ? AND contact_id = ?", campaignID, contactID).
		Count(&count).Error
	return count > 0, err
}

// Create writes the dispatch marker. The unique (campaign_id, contact_id)
// index makes this the idempotency gate under concurrent executors.
func (r *CampaignRecipientRepository) Create(recipient *models.CampaignRecipient) error {
	return r.db.Create(recipient).Error
}

// Update updates a recipient marker
func (r *CampaignRecipientRepository) Update(recipient *models.CampaignRecipient) error {
	return r.db.Save(recipient).Error
}

// CountByCampaign counts dispatch markers for a campaign
func (r *CampaignRecipientRepository) CountByCampaign(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}
