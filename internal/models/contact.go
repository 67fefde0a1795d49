package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact sources
const (
	ContactSourceManual      = "manual"
	ContactSourceImport      = "import"
	ContactSourceAPI         = "api"
	ContactSourceWhatsApp    = "whatsapp"
	ContactSourceWooCommerce = "woocommerce"
	ContactSourceZapier      = "zapier"
)

// Contact statuses
const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
	ContactStatusBlocked  = "blocked"
)

// Contact represents a WhatsApp contact owned by a platform user.
// Phone is unique per owning user; this is the multi-tenancy boundary.
type Contact struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UserID        string     `json:"user_id" gorm:"not null;index:idx_contacts_user_phone,unique;type:uuid"`
	Phone         string     `json:"phone" gorm:"type:varchar(32);not null;index:idx_contacts_user_phone,unique"`
	Name          string     `json:"name" gorm:"type:varchar(255)"`
	Email         string     `json:"email,omitempty" gorm:"type:varchar(255)"`
	Source        string     `json:"source" gorm:"type:varchar(20);default:'manual';index"`
	Status        string     `json:"status" gorm:"type:varchar(20);default:'active';index"`
	CustomFields  JSON       `json:"custom_fields,omitempty" gorm:"type:jsonb"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`

	// Relationships
	User       User               `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Tags       []Tag              `json:"tags,omitempty" gorm:"many2many:contact_tags;constraint:OnDelete:CASCADE"`
	Attributes []ContactAttribute `json:"attributes,omitempty" gorm:"foreignKey:ContactID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Contact model
func (Contact) TableName() string {
	return "contacts"
}

// Tag represents a label attached to contacts
type Tag struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;unique;index"`
	Color       string    `json:"color,omitempty" gorm:"type:varchar(20)"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Tag model
func (Tag) TableName() string {
	return "tags"
}

// Attribute represents a user-defined contact attribute definition
type Attribute struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;unique;index"`
	Type      string    `json:"type" gorm:"type:varchar(20);default:'text'"` // text, number, date, boolean, select
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (a *Attribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Attribute model
func (Attribute) TableName() string {
	return "attributes"
}

// ContactAttribute joins a contact to an attribute definition with a stored value
type ContactAttribute struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt   time.Time `json:"created_at"`
	ContactID   string    `json:"contact_id" gorm:"not null;index;type:uuid"`
	AttributeID string    `json:"attribute_id" gorm:"not null;index;type:uuid"`
	Value       string    `json:"value" gorm:"type:text"`

	// Relationships
	Attribute Attribute `json:"attribute" gorm:"foreignKey:AttributeID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (ca *ContactAttribute) BeforeCreate(tx *gorm.DB) error {
	if ca.ID == "" {
		ca.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the ContactAttribute model
func (ContactAttribute) TableName() string {
	return "contact_attributes"
}

// CreateContactRequest represents the request to create a new contact
type CreateContactRequest struct {
	Phone        string   `json:"phone" binding:"required"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CustomFields JSON     `json:"custom_fields,omitempty"`
}

// UpdateContactRequest represents the request to update a contact
type UpdateContactRequest struct {
	Name         *string  `json:"name,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Status       *string  `json:"status,omitempty" binding:"omitempty,oneof=active inactive blocked"`
	Tags         []string `json:"tags,omitempty"`
	CustomFields JSON     `json:"custom_fields,omitempty"`
}

// BulkImportRequest represents a bulk contact import payload
type BulkImportRequest struct {
	Contacts []CreateContactRequest `json:"contacts" binding:"required,min=1"`
}

// BulkImportResult reports per-row outcomes of a bulk import
type BulkImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ContactListQuery represents list filter parameters for contacts
type ContactListQuery struct {
	Page   int
	Limit  int
	Search string
	Tag    string
	Status string
}
