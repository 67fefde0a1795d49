package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services/whatsapp"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CampaignDispatcher consumes launched campaigns and executed retargeting
// campaigns from the work queues and sends to every targeted contact. A
// recipient marker row is written before each gateway call, so a redelivered
// or relaunched campaign never messages the same contact twice.
type CampaignDispatcher struct {
	campaignRepo          *repository.CampaignRepository
	recipientRepo         *repository.CampaignRecipientRepository
	retargetRepo          *repository.RetargetCampaignRepository
	retargetRecipientRepo *repository.RetargetRecipientRepository
	templateRepo          *repository.TemplateRepository
	contactRepo           *repository.ContactRepository
	accountRepo           *repository.WhatsAppAccountRepository
	messageRepo           *repository.MessageRepository
	rabbitmq              *RabbitMQService
	gateway               whatsapp.Gateway
	hub                   *SSEHub

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCampaignDispatcher(
	campaignRepo *repository.CampaignRepository,
	recipientRepo *repository.CampaignRecipientRepository,
	retargetRepo *repository.RetargetCampaignRepository,
	retargetRecipientRepo *repository.RetargetRecipientRepository,
	templateRepo *repository.TemplateRepository,
	contactRepo *repository.ContactRepository,
	accountRepo *repository.WhatsAppAccountRepository,
	messageRepo *repository.MessageRepository,
	rabbitmq *RabbitMQService,
	gateway whatsapp.Gateway,
	hub *SSEHub,
) *CampaignDispatcher {
	return &CampaignDispatcher{
		campaignRepo:          campaignRepo,
		recipientRepo:         recipientRepo,
		retargetRepo:          retargetRepo,
		retargetRecipientRepo: retargetRecipientRepo,
		templateRepo:          templateRepo,
		contactRepo:           contactRepo,
		accountRepo:           accountRepo,
		messageRepo:           messageRepo,
		rabbitmq:              rabbitmq,
		gateway:               gateway,
		hub:                   hub,
		done:                  make(chan struct{}),
	}
}

// Start begins consuming campaign and retarget jobs until Stop is called
func (d *CampaignDispatcher) Start() error {
	campaignDeliveries, err := d.rabbitmq.Consume(CampaignQueue)
	if err != nil {
		return fmt.Errorf("failed to start campaign consumer: %w", err)
	}
	retargetDeliveries, err := d.rabbitmq.Consume(RetargetQueue)
	if err != nil {
		return fmt.Errorf("failed to start retarget consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go func() {
		defer close(d.done)
		logrus.Info("Campaign dispatcher started")
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-campaignDeliveries:
				if !ok {
					logrus.Warn("Campaign queue channel closed")
					return
				}
				var job CampaignJob
				if err := json.Unmarshal(delivery.Body, &job); err != nil {
					logrus.Errorf("Failed to decode campaign job: %v", err)
					delivery.Nack(false, false)
					continue
				}
				if err := d.dispatch(ctx, &job); err != nil {
					logrus.Errorf("Failed to dispatch campaign %s: %v", job.CampaignID, err)
					delivery.Nack(false, false)
					continue
				}
				delivery.Ack(false)
			case delivery, ok := <-retargetDeliveries:
				if !ok {
					logrus.Warn("Retarget queue channel closed")
					return
				}
				var job RetargetJob
				if err := json.Unmarshal(delivery.Body, &job); err != nil {
					logrus.Errorf("Failed to decode retarget job: %v", err)
					delivery.Nack(false, false)
					continue
				}
				if err := d.dispatchRetarget(ctx, &job); err != nil {
					logrus.Errorf("Failed to dispatch retarget campaign %s: %v", job.CampaignID, err)
					delivery.Nack(false, false)
					continue
				}
				delivery.Ack(false)
			}
		}
	}()
	return nil
}

// Stop cancels in-flight dispatch and waits for the consumer loop to exit
func (d *CampaignDispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}
	logrus.Info("Campaign dispatcher stopped")
}

func (d *CampaignDispatcher) dispatch(ctx context.Context, job *CampaignJob) error {
	campaign, err := d.campaignRepo.GetByID(job.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.Warnf("Campaign %s no longer exists, dropping job", job.CampaignID)
			return nil
		}
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign.Status != models.CampaignStatusActive {
		logrus.Infof("Campaign %s is %s, skipping dispatch", campaign.ID, campaign.Status)
		return nil
	}

	template, err := d.templateRepo.GetByID(campaign.TemplateID)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if template.Status != models.TemplateStatusApproved {
		return fmt.Errorf("template %s is not approved", template.ID)
	}

	account, err := d.accountRepo.GetFirstActiveByUserID(campaign.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user has no connected whatsapp account")
		}
		return fmt.Errorf("failed to load account: %w", err)
	}
	accessToken, err := utils.DecryptSecret(account.AccessTokenEnc, config.SecretKey())
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	contacts, err := d.contactRepo.FindBySegments(campaign.UserID, campaign.TargetSegments)
	if err != nil {
		return fmt.Errorf("failed to resolve target contacts: %w", err)
	}
	logrus.Infof("Dispatching campaign %s to %d contacts", campaign.ID, len(contacts))

	for _, contact := range contacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.sendToContact(ctx, campaign, template, account, accessToken, contact)
	}

	if err := d.campaignRepo.UpdateStatus(campaign.ID, models.CampaignStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete campaign: %w", err)
	}
	if d.hub != nil {
		d.hub.Broadcast(campaign.UserID, "campaign.completed", map[string]string{"campaign_id": campaign.ID})
	}
	return nil
}

// sendToContact handles one recipient. Failures are recorded on the marker
// row and counted, they never abort the rest of the batch.
func (d *CampaignDispatcher) sendToContact(
	ctx context.Context,
	campaign *models.Campaign,
	template *models.Template,
	account *models.WhatsAppAccount,
	accessToken string,
	contact *models.Contact,
) {
	exists, err := d.recipientRepo.Exists(campaign.ID, contact.ID)
	if err != nil {
		logrus.Errorf("Failed to check recipient %s: %v", contact.ID, err)
		return
	}
	if exists {
		return
	}

	recipient := &models.CampaignRecipient{
		CampaignID: campaign.ID,
		ContactID:  contact.ID,
		Status:     "pending",
	}
	if err := d.recipientRepo.Create(recipient); err != nil {
		// A concurrent dispatcher won the unique index race, skip.
		logrus.Debugf("Recipient %s/%s already marked: %v", campaign.ID, contact.ID, err)
		return
	}

	providerID, sendErr := d.gateway.SendTemplate(ctx, accessToken, account.PhoneNumberID, contact.Phone, template.Name, template.Language)
	if sendErr != nil {
		logrus.Warnf("Failed to send to contact %s: %v", contact.ID, sendErr)
		recipient.Status = "failed"
		if err := d.recipientRepo.Update(recipient); err != nil {
			logrus.Errorf("Failed to update recipient %s: %v", recipient.ID, err)
		}
		if err := d.campaignRepo.IncrementMetric(campaign.ID, "failed"); err != nil {
			logrus.Errorf("Failed to count failure for campaign %s: %v", campaign.ID, err)
		}
		return
	}

	message := &models.Message{
		UserID:            campaign.UserID,
		WhatsAppAccountID: account.ID,
		ContactID:         contact.ID,
		Direction:         models.MessageDirectionOutbound,
		Type:              "TEXT",
		Content:           template.Content,
		Status:            models.MessageStatusSent,
		WhatsAppMessageID: providerID,
		CampaignID:        campaign.ID,
	}
	if err := d.messageRepo.Create(message); err != nil {
		logrus.Errorf("Failed to record message for contact %s: %v", contact.ID, err)
	}

	recipient.Status = "sent"
	recipient.MessageID = message.ID
	if err := d.recipientRepo.Update(recipient); err != nil {
		logrus.Errorf("Failed to update recipient %s: %v", recipient.ID, err)
	}
	if err := d.campaignRepo.IncrementMetric(campaign.ID, "sent"); err != nil {
		logrus.Errorf("Failed to count send for campaign %s: %v", campaign.ID, err)
	}
}

// dispatchRetarget resolves the filter audience at execution time and sends
// to every contact not yet covered by a recipient marker.
func (d *CampaignDispatcher) dispatchRetarget(ctx context.Context, job *RetargetJob) error {
	campaign, err := d.retargetRepo.GetByID(job.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.Warnf("Retarget campaign %s no longer exists, dropping job", job.CampaignID)
			return nil
		}
		return fmt.Errorf("failed to load retarget campaign: %w", err)
	}
	if campaign.Status != models.CampaignStatusActive {
		logrus.Infof("Retarget campaign %s is %s, skipping dispatch", campaign.ID, campaign.Status)
		return nil
	}

	var template *models.Template
	if campaign.TemplateID != "" {
		template, err = d.templateRepo.GetByID(campaign.TemplateID)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		if template.Status != models.TemplateStatusApproved {
			return fmt.Errorf("template %s is not approved", template.ID)
		}
	}

	account, err := d.accountRepo.GetFirstActiveByUserID(campaign.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user has no connected whatsapp account")
		}
		return fmt.Errorf("failed to load account: %w", err)
	}
	accessToken, err := utils.DecryptSecret(account.AccessTokenEnc, config.SecretKey())
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	contacts, err := d.contactRepo.FindByFilters(campaign.UserID, campaign.Filters)
	if err != nil {
		return fmt.Errorf("failed to compute audience: %w", err)
	}
	logrus.Infof("Dispatching retarget campaign %s to %d contacts", campaign.ID, len(contacts))

	for _, contact := range contacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.retargetContact(ctx, campaign, template, account, accessToken, contact)
	}

	sent, err := d.retargetRecipientRepo.CountSentByCampaign(campaign.ID)
	if err != nil {
		logrus.Errorf("Failed to count sends for retarget campaign %s: %v", campaign.ID, err)
	} else {
		campaign.SentCount = int(sent)
	}
	campaign.Status = models.CampaignStatusCompleted
	if err := d.retargetRepo.Update(campaign); err != nil {
		return fmt.Errorf("failed to complete retarget campaign: %w", err)
	}
	if d.hub != nil {
		d.hub.Broadcast(campaign.UserID, "retarget.completed", map[string]string{"campaign_id": campaign.ID})
	}
	return nil
}

// retargetContact handles one recipient. The marker is written before the
// gateway call, making re-execution of a completed campaign a no-op for
// contacts already reached.
func (d *CampaignDispatcher) retargetContact(
	ctx context.Context,
	campaign *models.RetargetCampaign,
	template *models.Template,
	account *models.WhatsAppAccount,
	accessToken string,
	contact *models.Contact,
) {
	exists, err := d.retargetRecipientRepo.Exists(campaign.ID, contact.ID)
	if err != nil {
		logrus.Errorf("Failed to check retarget recipient %s: %v", contact.ID, err)
		return
	}
	if exists {
		return
	}

	recipient := &models.RetargetRecipient{
		RetargetCampaignID: campaign.ID,
		ContactID:          contact.ID,
		Status:             "pending",
	}
	if err := d.retargetRecipientRepo.Create(recipient); err != nil {
		// A concurrent dispatcher won the unique index race, skip.
		logrus.Debugf("Retarget recipient %s/%s already marked: %v", campaign.ID, contact.ID, err)
		return
	}

	var providerID string
	var content string
	var sendErr error
	if template != nil {
		content = template.Content
		providerID, sendErr = d.gateway.SendTemplate(ctx, accessToken, account.PhoneNumberID, contact.Phone, template.Name, template.Language)
	} else {
		content = campaign.Message
		providerID, sendErr = d.gateway.SendText(ctx, accessToken, account.PhoneNumberID, contact.Phone, campaign.Message)
	}
	if sendErr != nil {
		logrus.Warnf("Failed to retarget contact %s: %v", contact.ID, sendErr)
		recipient.Status = "failed"
		if err := d.retargetRecipientRepo.Update(recipient); err != nil {
			logrus.Errorf("Failed to update retarget recipient %s: %v", recipient.ID, err)
		}
		return
	}

	message := &models.Message{
		UserID:            campaign.UserID,
		WhatsAppAccountID: account.ID,
		ContactID:         contact.ID,
		Direction:         models.MessageDirectionOutbound,
		Type:              "TEXT",
		Content:           content,
		Status:            models.MessageStatusSent,
		WhatsAppMessageID: providerID,
	}
	if err := d.messageRepo.Create(message); err != nil {
		logrus.Errorf("Failed to record retarget message for contact %s: %v", contact.ID, err)
	}

	recipient.Status = "sent"
	recipient.MessageID = message.ID
	if err := d.retargetRecipientRepo.Update(recipient); err != nil {
		logrus.Errorf("Failed to update retarget recipient %s: %v", recipient.ID, err)
	}
}
