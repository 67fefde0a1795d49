package services

import (
	"context"
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRetargetService(db *gorm.DB, rabbitmq *RabbitMQService) *RetargetService {
	return NewRetargetService(
		repository.NewRetargetCampaignRepository(db),
		repository.NewContactRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewWhatsAppAccountRepository(db),
		rabbitmq,
	)
}

func newRetargetDispatcher(db *gorm.DB, gateway *fakeGateway) *CampaignDispatcher {
	return NewCampaignDispatcher(
		repository.NewCampaignRepository(db),
		repository.NewCampaignRecipientRepository(db),
		repository.NewRetargetCampaignRepository(db),
		repository.NewRetargetRecipientRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewContactRepository(db),
		repository.NewWhatsAppAccountRepository(db),
		repository.NewMessageRepository(db),
		nil,
		gateway,
		nil,
	)
}

func seedRetargetFixture(t *testing.T, db *gorm.DB, email string) (*models.User, *models.Contact) {
	t.Helper()

	user := createTestUser(t, db, email)

	tokenEnc, err := utils.EncryptSecret("raw-token", config.SecretKey())
	require.NoError(t, err)
	account := &models.WhatsAppAccount{
		UserID:            user.ID,
		PhoneNumberID:     "pn-" + user.ID[:8],
		BusinessAccountID: "ba-1",
		DisplayName:       "Acme",
		AccessTokenEnc:    tokenEnc,
		Status:            models.AccountStatusConnected,
		IsActive:          true,
	}
	require.NoError(t, db.Create(account).Error)

	contact := &models.Contact{
		UserID: user.ID,
		Phone:  "+491700001111",
		Source: models.ContactSourceManual,
		Status: models.ContactStatusActive,
	}
	require.NoError(t, db.Create(contact).Error)

	return user, contact
}

func TestRetargetDispatchSkipsReachedContacts(t *testing.T) {
	db := setupTestDB(t)
	user, contact := seedRetargetFixture(t, db, "retarget@example.com")
	gateway := &fakeGateway{}
	dispatcher := newRetargetDispatcher(db, gateway)

	campaign := &models.RetargetCampaign{
		UserID:  user.ID,
		Name:    "win back",
		Message: "hi again",
		Status:  models.CampaignStatusActive,
	}
	require.NoError(t, db.Create(campaign).Error)

	job := &RetargetJob{CampaignID: campaign.ID, UserID: user.ID}
	require.NoError(t, dispatcher.dispatchRetarget(context.Background(), job))

	var reloaded models.RetargetCampaign
	require.NoError(t, db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.Equal(t, models.CampaignStatusCompleted, reloaded.Status)
	assert.Equal(t, 1, reloaded.SentCount)
	assert.Equal(t, []string{"hi again"}, gateway.sentTexts)

	// Re-executing the completed campaign flips it active again and
	// redelivers the job; the recipient marker keeps the contact from
	// being messaged twice.
	require.NoError(t, db.Model(&reloaded).Update("status", models.CampaignStatusActive).Error)
	require.NoError(t, dispatcher.dispatchRetarget(context.Background(), job))

	assert.Equal(t, []string{"hi again"}, gateway.sentTexts)

	var messageCount int64
	require.NoError(t, db.Model(&models.Message{}).
		Where("contact_id = ?", contact.ID).
		Count(&messageCount).Error)
	assert.Equal(t, int64(1), messageCount)

	require.NoError(t, db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.Equal(t, models.CampaignStatusCompleted, reloaded.Status)
	assert.Equal(t, 1, reloaded.SentCount)
}

func TestRetargetDispatchPicksUpNewContacts(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedRetargetFixture(t, db, "retarget-grow@example.com")
	gateway := &fakeGateway{}
	dispatcher := newRetargetDispatcher(db, gateway)

	campaign := &models.RetargetCampaign{
		UserID:  user.ID,
		Name:    "win back",
		Message: "hi again",
		Status:  models.CampaignStatusActive,
	}
	require.NoError(t, db.Create(campaign).Error)

	job := &RetargetJob{CampaignID: campaign.ID, UserID: user.ID}
	require.NoError(t, dispatcher.dispatchRetarget(context.Background(), job))
	assert.Len(t, gateway.sentTexts, 1)

	// A contact added after the first run is reached on re-execution,
	// while the original contact is not messaged again.
	newcomer := &models.Contact{
		UserID: user.ID,
		Phone:  "+491700002222",
		Source: models.ContactSourceManual,
		Status: models.ContactStatusActive,
	}
	require.NoError(t, db.Create(newcomer).Error)
	require.NoError(t, db.Model(&models.RetargetCampaign{}).
		Where("id = ?", campaign.ID).
		Update("status", models.CampaignStatusActive).Error)

	require.NoError(t, dispatcher.dispatchRetarget(context.Background(), job))
	assert.Len(t, gateway.sentTexts, 2)

	var reloaded models.RetargetCampaign
	require.NoError(t, db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.Equal(t, 2, reloaded.SentCount)
}

func TestRetargetExecuteEnqueues(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedRetargetFixture(t, db, "retarget-exec@example.com")
	svc := newRetargetService(db, nil)

	campaign, err := svc.CreateCampaign(user.ID, &models.CreateRetargetCampaignRequest{
		Name:    "win back",
		Message: "hi again",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)
	assert.Equal(t, 1, campaign.TargetCount)

	// Without a broker the execution is refused before any status change.
	_, err = svc.Execute(user.ID, campaign.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	var reloaded models.RetargetCampaign
	require.NoError(t, db.First(&reloaded, "id = ?", campaign.ID).Error)
	assert.Equal(t, models.CampaignStatusDraft, reloaded.Status)
}

func TestRetargetExecuteRequiresAccount(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "retarget-noacct@example.com")
	svc := newRetargetService(db, nil)

	campaign, err := svc.CreateCampaign(user.ID, &models.CreateRetargetCampaignRequest{
		Name:    "win back",
		Message: "hi again",
	})
	require.NoError(t, err)

	_, err = svc.Execute(user.ID, campaign.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no connected whatsapp account")
}
