package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhatsApp account statuses
const (
	AccountStatusConnected    = "CONNECTED"
	AccountStatusDisconnected = "DISCONNECTED"
)

// WhatsAppAccount represents a connected WhatsApp Business API phone number.
// AccessTokenEnc holds the provider access token encrypted with AES-GCM; the
// plaintext is never persisted and never returned to clients.
type WhatsAppAccount struct {
	ID                string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            string    `json:"user_id" gorm:"not null;index;type:uuid"`
	PhoneNumberID     string    `json:"phone_number_id" gorm:"type:varchar(64);not null;unique;index"`
	BusinessAccountID string    `json:"business_account_id" gorm:"type:varchar(64);not null"`
	DisplayName       string    `json:"display_name" gorm:"type:varchar(255)"`
	AccessTokenEnc    string    `json:"-" gorm:"type:text;not null"`
	Status            string    `json:"status" gorm:"type:varchar(20);default:'CONNECTED'"`
	IsActive          bool      `json:"is_active" gorm:"default:true;index"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (a *WhatsAppAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the WhatsAppAccount model
func (WhatsAppAccount) TableName() string {
	return "whatsapp_accounts"
}

// ConnectAccountRequest represents the request to connect a WhatsApp account
type ConnectAccountRequest struct {
	AccessToken       string `json:"access_token" binding:"required"`
	PhoneNumberID     string `json:"phone_number_id" binding:"required"`
	BusinessAccountID string `json:"business_account_id" binding:"required"`
}

// AccountResponse is the client-facing view of a connected account
type AccountResponse struct {
	ID            string    `json:"id"`
	PhoneNumberID string    `json:"phone_number_id"`
	DisplayName   string    `json:"display_name"`
	Status        string    `json:"status"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
