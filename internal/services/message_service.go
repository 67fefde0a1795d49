package services

import (
	"context"
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

// MessageService handles connected accounts, direct outbound sends and the
// message history views.
type MessageService struct {
	accountRepo  *repository.WhatsAppAccountRepository
	messageRepo  *repository.MessageRepository
	contactRepo  *repository.ContactRepository
	templateRepo *repository.TemplateRepository
	gateway      whatsapp.Gateway
	hub          *SSEHub
}

func NewMessageService(
	accountRepo *repository.WhatsAppAccountRepository,
	messageRepo *repository.MessageRepository,
	contactRepo *repository.ContactRepository,
	templateRepo *repository.TemplateRepository,
	gateway whatsapp.Gateway,
	hub *SSEHub,
) *MessageService {
	return &MessageService{
		accountRepo:  accountRepo,
		messageRepo:  messageRepo,
		contactRepo:  contactRepo,
		templateRepo: templateRepo,
		gateway:      gateway,
		hub:          hub,
	}
}

// ConnectAccount verifies the credentials against the provider and stores
// the account with the access token encrypted at rest.
func (s *MessageService) ConnectAccount(ctx context.Context, userID string, req *models.ConnectAccountRequest) (*models.WhatsAppAccount, error) {
	if existing, err := s.accountRepo.GetByPhoneNumberID(req.PhoneNumberID); err == nil && existing != nil {
		return nil, errors.New("account already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}

	info, err := s.gateway.VerifyPhoneNumber(ctx, req.AccessToken, req.PhoneNumberID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify phone number: %w", err)
	}

	tokenEnc, err := utils.EncryptSecret(req.AccessToken, config.SecretKey())
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	account := &models.WhatsAppAccount{
		UserID:            userID,
		PhoneNumberID:     req.PhoneNumberID,
		BusinessAccountID: req.BusinessAccountID,
		DisplayName:       info.VerifiedName,
		AccessTokenEnc:    tokenEnc,
		Status:            models.AccountStatusConnected,
		IsActive:          true,
	}
	if account.DisplayName == "" {
		account.DisplayName = info.DisplayPhoneNumber
	}

	if err := s.accountRepo.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetAccounts retrieves the user's connected accounts
func (s *MessageService) GetAccounts(userID string) ([]*models.AccountResponse, error) {
	accounts, err := s.accountRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	responses := make([]*models.AccountResponse, len(accounts))
	for i, a := range accounts {
		responses[i] = &models.AccountResponse{
			ID:            a.ID,
			PhoneNumberID: a.PhoneNumberID,
			DisplayName:   a.DisplayName,
			Status:        a.Status,
			IsActive:      a.IsActive,
			CreatedAt:     a.CreatedAt,
		}
	}
	return responses, nil
}

// DisconnectAccount removes a connected account
func (s *MessageService) DisconnectAccount(userID, accountID string) error {
	if err := s.accountRepo.DeleteByUserIDAndID(userID, accountID); err != nil {
		return fmt.Errorf("failed to disconnect account: %w", err)
	}
	return nil
}

// SendMessage sends one outbound message through the user's connected
// account and records it. The recipient contact is created on the fly if the
// number is not yet in the address book.
func (s *MessageService) SendMessage(ctx context.Context, userID string, req *models.SendMessageRequest) (*models.Message, error) {
	account, err := s.accountRepo.GetActiveByUserIDAndPhoneNumberID(userID, req.PhoneNumberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("whatsapp account not found")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	accessToken, err := utils.DecryptSecret(account.AccessTokenEnc, config.SecretKey())
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	contact, err := s.ensureContact(userID, req.To)
	if err != nil {
		return nil, err
	}

	content := req.Message
	var providerID string
	if req.Type == "template" && req.TemplateID != "" {
		template, err := s.templateRepo.GetByUserIDAndID(userID, req.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("template not found")
			}
			return nil, fmt.Errorf("failed to get template: %w", err)
		}
		if template.Status != models.TemplateStatusApproved {
			return nil, errors.New("template is not approved")
		}
		content = template.Content
		providerID, err = s.gateway.SendTemplate(ctx, accessToken, account.PhoneNumberID, contact.Phone, template.Name, template.Language)
		if err != nil {
			return nil, err
		}
	} else {
		providerID, err = s.gateway.SendText(ctx, accessToken, account.PhoneNumberID, contact.Phone, req.Message)
		if err != nil {
			return nil, err
		}
	}

	message := &models.Message{
		UserID:            userID,
		WhatsAppAccountID: account.ID,
		ContactID:         contact.ID,
		Direction:         models.MessageDirectionOutbound,
		Type:              "TEXT",
		Content:           content,
		Status:            models.MessageStatusSent,
		WhatsAppMessageID: providerID,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("failed to record message: %w", err)
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, "message.sent", message)
	}
	return message, nil
}

// ListMessages retrieves the user's message history with pagination
func (s *MessageService) ListMessages(userID string, query models.MessageListQuery) ([]*models.Message, *utils.Pagination, error) {
	messages, total, err := s.messageRepo.List(userID, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list messages: %w", err)
	}
	pagination := utils.NewPagination(query.Page, query.Limit, total)
	return messages, pagination, nil
}

// GetAnalytics computes the message analytics overview for a user
func (s *MessageService) GetAnalytics(userID string) (*models.MessageAnalytics, error) {
	analytics, err := s.messageRepo.Analytics(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}
	return analytics, nil
}

func (s *MessageService) ensureContact(userID, phone string) (*models.Contact, error) {
	phone = normalizePhone(phone)
	contact, err := s.contactRepo.GetByUserIDAndPhone(userID, phone)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	contact = &models.Contact{
		UserID: userID,
		Phone:  phone,
		Source: models.ContactSourceAPI,
		Status: models.ContactStatusActive,
	}
	if err := s.contactRepo.Create(contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	logrus.Debugf("Created contact %s for unknown number", contact.ID)
	return contact, nil
}
