package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RetargetFilters is the predicate object of a retargeting campaign. The
// target contact set is the conjunction of the enabled filters only: a false
// boolean or empty value means "do not constrain by this", never "exclude".
type RetargetFilters struct {
	Unread            bool     `json:"unread"`
	NoReply           bool     `json:"noReply"`
	Clicked           bool     `json:"clicked"`
	Tags              []string `json:"tags,omitempty"`
	LastMessageBefore string   `json:"lastMessageBefore,omitempty"` // YYYY-MM-DD
	Source            string   `json:"source,omitempty"`
}

// Value implements driver.Valuer
func (f RetargetFilters) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner
func (f *RetargetFilters) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for filters scan")
	}
	return json.Unmarshal(data, f)
}

// BeforeDate parses LastMessageBefore, returning ok=false when unset.
func (f RetargetFilters) BeforeDate() (time.Time, bool) {
	if f.LastMessageBefore == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", f.LastMessageBefore)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RetargetCampaign is a campaign whose audience is computed from filters over
// the contact and message stores instead of an explicit list.
type RetargetCampaign struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`
	UserID      string          `json:"user_id" gorm:"not null;index;type:uuid"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	TemplateID  string          `json:"template_id,omitempty" gorm:"type:uuid"`
	Message     string          `json:"message,omitempty" gorm:"type:text"`
	Filters     RetargetFilters `json:"filters" gorm:"type:jsonb"`
	Status      string          `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ScheduledAt *time.Time      `json:"scheduled_at"`

	// Derived counters, recomputed at execution time.
	TargetCount int `json:"target_count" gorm:"default:0"`
	SentCount   int `json:"sent_count" gorm:"default:0"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (r *RetargetCampaign) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the RetargetCampaign model
func (RetargetCampaign) TableName() string {
	return "retarget_campaigns"
}

// RetargetRecipient marks a contact as dispatched for a retargeting
// campaign. The row is written before the gateway call, so re-executing a
// completed campaign never sends to the same contact twice.
type RetargetRecipient struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt          time.Time `json:"created_at"`
	RetargetCampaignID string    `json:"retarget_campaign_id" gorm:"not null;index:idx_retarget_contact,unique;type:uuid"`
	ContactID          string    `json:"contact_id" gorm:"not null;index:idx_retarget_contact,unique;type:uuid"`
	MessageID          string    `json:"message_id,omitempty" gorm:"type:uuid"`
	Status             string    `json:"status" gorm:"type:varchar(20);default:'pending'"` // pending, sent, failed

	// Relationships
	RetargetCampaign RetargetCampaign `json:"-" gorm:"foreignKey:RetargetCampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Contact          Contact          `json:"-" gorm:"foreignKey:ContactID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (r *RetargetRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the RetargetRecipient model
func (RetargetRecipient) TableName() string {
	return "retarget_recipients"
}

// CreateRetargetCampaignRequest represents the request to create a retargeting campaign
type CreateRetargetCampaignRequest struct {
	Name        string          `json:"name" binding:"required"`
	TemplateID  string          `json:"template_id,omitempty" binding:"omitempty,uuid"`
	Message     string          `json:"message,omitempty"`
	Filters     RetargetFilters `json:"filters"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

// UpdateRetargetCampaignRequest represents the request to update a retargeting campaign
type UpdateRetargetCampaignRequest struct {
	Name        string           `json:"name,omitempty"`
	TemplateID  string           `json:"template_id,omitempty" binding:"omitempty,uuid"`
	Message     *string          `json:"message,omitempty"`
	Filters     *RetargetFilters `json:"filters,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
}
