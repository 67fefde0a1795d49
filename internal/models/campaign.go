package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusPaused    = "paused"
)

// Campaign represents a bulk-messaging campaign built on an approved template
type Campaign struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UserID         string     `json:"user_id" gorm:"not null;index;type:uuid"`
	Name           string     `json:"name" gorm:"type:varchar(255);not null"`
	TemplateID     string     `json:"template_id" gorm:"not null;index;type:uuid"`
	FlowID         string     `json:"flow_id,omitempty" gorm:"type:uuid"`
	TargetSegments StringList `json:"target_segments" gorm:"type:jsonb"`
	ScheduledAt    *time.Time `json:"scheduled_at" gorm:"index"`
	Status         string     `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Triggers       JSON       `json:"triggers,omitempty" gorm:"type:jsonb"`

	// Delivery metrics, monotonically non-decreasing. Updated from provider
	// status callbacks, never reset.
	Sent      int `json:"sent" gorm:"default:0"`
	Delivered int `json:"delivered" gorm:"default:0"`
	Read      int `json:"read" gorm:"default:0"`
	Failed    int `json:"failed" gorm:"default:0"`

	// Relationships
	User     User     `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Template Template `json:"template,omitempty" gorm:"foreignKey:TemplateID;references:ID"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignRecipient marks a contact as dispatched for a campaign. The row is
// written before the gateway call, so re-executing a campaign never sends to
// the same contact twice.
type CampaignRecipient struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt  time.Time `json:"created_at"`
	CampaignID string    `json:"campaign_id" gorm:"not null;index:idx_campaign_contact,unique;type:uuid"`
	ContactID  string    `json:"contact_id" gorm:"not null;index:idx_campaign_contact,unique;type:uuid"`
	MessageID  string    `json:"message_id,omitempty" gorm:"type:uuid"`
	Status     string    `json:"status" gorm:"type:varchar(20);default:'pending'"` // pending, sent, failed

	// Relationships
	Campaign Campaign `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Contact  Contact  `json:"-" gorm:"foreignKey:ContactID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (r *CampaignRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the CampaignRecipient model
func (CampaignRecipient) TableName() string {
	return "campaign_recipients"
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name           string     `json:"name" binding:"required"`
	TemplateID     string     `json:"template_id" binding:"required,uuid"`
	FlowID         string     `json:"flow_id,omitempty" binding:"omitempty,uuid"`
	TargetSegments []string   `json:"target_segments,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateCampaignRequest represents the request to update a campaign
type UpdateCampaignRequest struct {
	Name           string     `json:"name,omitempty"`
	TemplateID     string     `json:"template_id,omitempty" binding:"omitempty,uuid"`
	FlowID         *string    `json:"flow_id,omitempty"`
	TargetSegments []string   `json:"target_segments,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
}

// CampaignMetrics is the metrics view returned to the dashboard
type CampaignMetrics struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Read      int `json:"read"`
	Failed    int `json:"failed"`
}
