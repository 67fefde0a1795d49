package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WebhookService processes WhatsApp Cloud API callbacks: inbound messages
// from contacts and status updates for messages we sent. Each item in a
// payload is processed independently; one bad item never drops the rest.
type WebhookService struct {
	accountRepo  *repository.WhatsAppAccountRepository
	contactRepo  *repository.ContactRepository
	messageRepo  *repository.MessageRepository
	campaignRepo *repository.CampaignRepository
	hub          *SSEHub
}

func NewWebhookService(
	accountRepo *repository.WhatsAppAccountRepository,
	contactRepo *repository.ContactRepository,
	messageRepo *repository.MessageRepository,
	campaignRepo *repository.CampaignRepository,
	hub *SSEHub,
) *WebhookService {
	return &WebhookService{
		accountRepo:  accountRepo,
		contactRepo:  contactRepo,
		messageRepo:  messageRepo,
		campaignRepo: campaignRepo,
		hub:          hub,
	}
}

// ProcessPayload walks every entry and change in a webhook delivery
func (s *WebhookService) ProcessPayload(payload *models.WebhookPayload) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			s.processValue(&change.Value)
		}
	}
}

func (s *WebhookService) processValue(value *models.WebhookValue) {
	account, err := s.accountRepo.GetByPhoneNumberID(value.Metadata.PhoneNumberID)
	if err != nil {
		logrus.Warnf("Webhook for unknown phone number id %s, ignoring", value.Metadata.PhoneNumberID)
		return
	}

	for i := range value.Messages {
		if err := s.processInbound(account, &value.Messages[i]); err != nil {
			logrus.Errorf("Failed to process inbound message %s: %v", value.Messages[i].ID, err)
		}
	}
	for i := range value.Statuses {
		if err := s.processStatus(account, &value.Statuses[i]); err != nil {
			logrus.Errorf("Failed to process status update %s: %v", value.Statuses[i].ID, err)
		}
	}
}

// processInbound records a message received from a contact, creating the
// contact on first touch. Redelivered provider ids are ignored.
func (s *WebhookService) processInbound(account *models.WhatsAppAccount, inbound *models.InboundMessage) error {
	if _, err := s.messageRepo.GetByWhatsAppMessageID(inbound.ID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	contact, err := s.contactRepo.GetByUserIDAndPhone(account.UserID, inbound.From)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = &models.Contact{
			UserID: account.UserID,
			Phone:  inbound.From,
			Source: models.ContactSourceWhatsApp,
			Status: models.ContactStatusActive,
		}
		if err := s.contactRepo.Create(contact); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	message := &models.Message{
		UserID:            account.UserID,
		WhatsAppAccountID: account.ID,
		ContactID:         contact.ID,
		Direction:         models.MessageDirectionInbound,
		Type:              strings.ToUpper(inbound.Type),
		Content:           inboundContent(inbound),
		Status:            models.MessageStatusDelivered,
		WhatsAppMessageID: inbound.ID,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return err
	}

	if at, ok := parseEpoch(inbound.Timestamp); ok {
		if err := s.contactRepo.UpdateLastMessageAt(contact.ID, at); err != nil {
			logrus.Warnf("Failed to update last message time for contact %s: %v", contact.ID, err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(account.UserID, "message.received", message)
	}
	return nil
}

// processStatus applies a provider status callback to the matching outbound
// message. Unknown message ids are ignored; the provider also reports
// statuses for messages sent outside this platform.
func (s *WebhookService) processStatus(account *models.WhatsAppAccount, status *models.StatusUpdate) error {
	message, err := s.messageRepo.GetByWhatsAppMessageID(status.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var metric string
	switch status.Status {
	case "delivered":
		message.Status = models.MessageStatusDelivered
		if at, ok := parseEpoch(status.Timestamp); ok {
			message.DeliveredAt = &at
		}
		metric = "delivered"
	case "read":
		message.Status = models.MessageStatusRead
		if at, ok := parseEpoch(status.Timestamp); ok {
			message.ReadAt = &at
		}
		metric = "read"
	case "failed":
		message.Status = models.MessageStatusFailed
		if len(status.Errors) > 0 {
			message.ErrorMessage = status.Errors[0].Title
		}
		metric = "failed"
	case "sent":
		return nil
	default:
		logrus.Warnf("Unknown status %q for message %s", status.Status, status.ID)
		return nil
	}

	if err := s.messageRepo.Update(message); err != nil {
		return err
	}

	if message.CampaignID != "" {
		if err := s.campaignRepo.IncrementMetric(message.CampaignID, metric); err != nil {
			logrus.Errorf("Failed to count %s for campaign %s: %v", metric, message.CampaignID, err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(account.UserID, "message.status", message)
	}
	return nil
}

func inboundContent(inbound *models.InboundMessage) string {
	switch {
	case inbound.Text != nil:
		return inbound.Text.Body
	case inbound.Image != nil:
		return inbound.Image.Caption
	case inbound.Video != nil:
		return inbound.Video.Caption
	case inbound.Document != nil:
		return inbound.Document.Filename
	}
	return ""
}

// parseEpoch converts the provider's epoch-seconds string timestamps
func parseEpoch(value string) (time.Time, bool) {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
