package services

import (
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCampaignService(db *gorm.DB, rabbitmq *RabbitMQService) *CampaignService {
	return NewCampaignService(
		repository.NewCampaignRepository(db),
		repository.NewCampaignRecipientRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewContactRepository(db),
		rabbitmq,
	)
}

func createApprovedTemplate(t *testing.T, db *gorm.DB, userID string) *models.Template {
	t.Helper()
	template := &models.Template{
		UserID:   userID,
		Name:     "order_update",
		Content:  "Your order shipped",
		Status:   models.TemplateStatusApproved,
		Language: "en",
	}
	require.NoError(t, db.Create(template).Error)
	return template
}

func TestLaunchCampaignWithoutBroker(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "campaign-nobroker@example.com")
	template := createApprovedTemplate(t, db, user.ID)
	svc := newCampaignService(db, nil)

	campaign, err := svc.CreateCampaign(user.ID, &models.CreateCampaignRequest{
		Name:       "spring sale",
		TemplateID: template.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)

	// The launch is refused before any status change, so the campaign
	// stays launchable once the broker is back.
	_, err = svc.LaunchCampaign(user.ID, campaign.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	var reloaded models.Campaign
	require.NoError(t, db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.Equal(t, models.CampaignStatusDraft, reloaded.Status)
}

func TestNilQueuePublishReturnsError(t *testing.T) {
	var mq *RabbitMQService
	err := mq.PublishJSON(CampaignQueue, CampaignJob{CampaignID: "c1", UserID: "u1"})
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	_, err = mq.Consume(CampaignQueue)
	assert.ErrorIs(t, err, ErrQueueUnavailable)
}

func TestLaunchCampaignRejectsActive(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "campaign-active@example.com")
	template := createApprovedTemplate(t, db, user.ID)
	svc := newCampaignService(db, nil)

	campaign, err := svc.CreateCampaign(user.ID, &models.CreateCampaignRequest{
		Name:       "spring sale",
		TemplateID: template.ID,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Campaign{}).
		Where("id = ?", campaign.ID).
		Update("status", models.CampaignStatusActive).Error)

	_, err = svc.LaunchCampaign(user.ID, campaign.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already active")
}

func TestCreateCampaignRequiresApprovedTemplate(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "campaign-pending@example.com")
	template := &models.Template{
		UserID:   user.ID,
		Name:     "pending_tpl",
		Content:  "hi",
		Status:   models.TemplateStatusPending,
		Language: "en",
	}
	require.NoError(t, db.Create(template).Error)

	svc := newCampaignService(db, nil)
	_, err := svc.CreateCampaign(user.ID, &models.CreateCampaignRequest{
		Name:       "spring sale",
		TemplateID: template.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not approved")
}
