package repository

import (
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type WhatsAppAccountRepository struct {
	db *gorm.DB
}

func NewWhatsAppAccountRepository(db *gorm.DB) *WhatsAppAccountRepository {
	return &WhatsAppAccountRepository{db: db}
}

// Create creates a new WhatsApp account
func (r *WhatsAppAccountRepository) Create(account *models.WhatsAppAccount) error {
	return r.db.Create(account).Error
}

// GetByPhoneNumberID retrieves an account by its provider phone number id.
// PhoneNumberID is globally unique across tenants; webhook routing depends
// on it.
func (r *WhatsAppAccountRepository) GetByPhoneNumberID(phoneNumberID string) (*models.WhatsAppAccount, error) {
	var account models.WhatsAppAccount
	err := r.db.First(&account, "phone_number_id = ?", phoneNumberID).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetActiveByUserIDAndPhoneNumberID retrieves a user's active account
func (r *WhatsAppAccountRepository) GetActiveByUserIDAndPhoneNumberID(userID, phoneNumberID string) (*models.WhatsAppAccount, error) {
	var account models.WhatsAppAccount
	err := r.db.Where("user_id = ? AND phone_number_id = ? AND is_active = ?", userID, phoneNumberID, true).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetFirstActiveByUserID retrieves the user's first active account
func (r *WhatsAppAccountRepository) GetFirstActiveByUserID(userID string) (*models.WhatsAppAccount, error) {
	var account models.WhatsAppAccount
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves all accounts of a user
func (r *WhatsAppAccountRepository) GetByUserID(userID string) ([]*models.WhatsAppAccount, error) {
	var accounts []*models.WhatsAppAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

// Update updates a WhatsApp account
func (r *WhatsAppAccountRepository) Update(account *models.WhatsAppAccount) error {
	return r.db.Save(account).Error
}

// DeleteByUserIDAndID deletes an account owned by a user
func (r *WhatsAppAccountRepository) DeleteByUserIDAndID(userID, accountID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, accountID).Delete(&models.WhatsAppAccount{}).Error
}
