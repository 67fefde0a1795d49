package repository

import (
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type RetargetRecipientRepository struct {
	db *gorm.DB
}

func NewRetargetRecipientRepository(db *gorm.DB) *RetargetRecipientRepository {
	return &RetargetRecipientRepository{db: db}
}

// Exists reports whether a dispatch marker already exists for the pair
func (r *RetargetRecipientRepository) Exists(campaignID, contactID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RetargetRecipient{}).
		Where("retarget_campaign_id = ? AND contact_id = ?", campaignID, contactID).
		Count(&count).Error
	return count > 0, err
}

// Create writes the dispatch marker. The unique (retarget_campaign_id,
// contact_id) index makes this the idempotency gate under concurrent
// executors.
func (r *RetargetRecipientRepository) Create(recipient *models.RetargetRecipient) error {
	return r.db.Create(recipient).Error
}

// Update updates a recipient marker
func (r *RetargetRecipientRepository) Update(recipient *models.RetargetRecipient) error {
	return r.db.Save(recipient).Error
}

// CountSentByCampaign counts contacts already reached by a campaign
func (r *RetargetRecipientRepository) CountSentByCampaign(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.RetargetRecipient{}).
		Where("retarget_campaign_id = ? AND status = ?", campaignID, "sent").
		Count(&count).Error
	return count, err
}
