package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message directions
const (
	MessageDirectionInbound  = "INBOUND"
	MessageDirectionOutbound = "OUTBOUND"
)

// Message statuses
const (
	MessageStatusSent      = "SENT"
	MessageStatusDelivered = "DELIVERED"
	MessageStatusRead      = "READ"
	MessageStatusFailed    = "FAILED"
)

// Message represents one WhatsApp message, inbound or outbound. Status
// transitions arrive asynchronously from the provider webhook and are applied
// by WhatsAppMessageID lookup, so that id must be unique per account.
type Message struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt         time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt         time.Time  `json:"updated_at"`
	UserID            string     `json:"user_id" gorm:"not null;index;type:uuid"`
	WhatsAppAccountID string     `json:"whatsapp_account_id" gorm:"not null;index;type:uuid"`
	ContactID         string     `json:"contact_id" gorm:"not null;index;type:uuid"`
	Direction         string     `json:"direction" gorm:"type:varchar(10);not null;index"`
	Type              string     `json:"type" gorm:"type:varchar(20);default:'TEXT'"`
	Content           string     `json:"content" gorm:"type:text"`
	Status            string     `json:"status" gorm:"type:varchar(20);default:'SENT';index"`
	MediaURL          string     `json:"media_url,omitempty" gorm:"type:text"`
	WhatsAppMessageID string     `json:"whatsapp_message_id" gorm:"type:varchar(255);unique;index"`
	CampaignID        string     `json:"campaign_id,omitempty" gorm:"index;type:uuid"`
	DeliveredAt       *time.Time `json:"delivered_at"`
	ReadAt            *time.Time `json:"read_at"`
	ErrorMessage      string     `json:"error_message,omitempty" gorm:"type:text"`

	// Relationships
	User            User            `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	WhatsAppAccount WhatsAppAccount `json:"-" gorm:"foreignKey:WhatsAppAccountID;references:ID;constraint:OnDelete:CASCADE"`
	Contact         Contact         `json:"contact,omitempty" gorm:"foreignKey:ContactID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest represents an outbound send request
type SendMessageRequest struct {
	PhoneNumberID string `json:"phone_number_id" binding:"required"`
	To            string `json:"to" binding:"required"`
	Message       string `json:"message" binding:"required"`
	Type          string `json:"type,omitempty" binding:"omitempty,oneof=text template"`
	TemplateID    string `json:"template_id,omitempty" binding:"omitempty,uuid"`
}

// MessageListQuery represents list filter parameters for messages
type MessageListQuery struct {
	Page      int
	Limit     int
	ContactID string
	Direction string
	Status    string
}

// MessageAnalytics is the analytics overview for the dashboard
type MessageAnalytics struct {
	TotalMessages  int     `json:"total_messages"`
	Sent           int     `json:"sent"`
	Delivered      int     `json:"delivered"`
	Read           int     `json:"read"`
	Failed         int     `json:"failed"`
	DeliveryRate   float64 `json:"delivery_rate"`
	ReadRate       float64 `json:"read_rate"`
	ActiveContacts int     `json:"active_contacts"`
}
