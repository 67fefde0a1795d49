package repository

import (
	"strings"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// GetByUserIDAndID retrieves a contact owned by a user
func (r *ContactRepository) GetByUserIDAndID(userID, contactID string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("user_id = ? AND id = ?", userID, contactID).
		Preload("Tags").
		Preload("Attributes.Attribute").
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByUserIDAndPhone retrieves a contact by its owner-scoped phone number
func (r *ContactRepository) GetByUserIDAndPhone(userID, phone string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("user_id = ? AND phone = ?", userID, phone).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ExistsByUserIDAndPhone checks the owner-scoped phone uniqueness constraint
func (r *ContactRepository) ExistsByUserIDAndPhone(userID, phone string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).
		Where("user_id = ? AND phone = ?", userID, phone).
		Count(&count).Error
	return count > 0, err
}

// List retrieves a page of contacts matching the query filters
func (r *ContactRepository) List(userID string, query models.ContactListQuery) ([]*models.Contact, int64, error) {
	base := r.db.Model(&models.Contact{}).Where("contacts.user_id = ?", userID)

	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		base = base.Where(
			"LOWER(contacts.name) LIKE ? OR contacts.phone LIKE ? OR LOWER(contacts.email) LIKE ?",
			pattern, "%"+query.Search+"%", pattern,
		)
	}

	if query.Tag != "" {
		base = base.Where(
			"contacts.id IN (SELECT contact_tags.contact_id FROM contact_tags JOIN tags ON tags.id = contact_tags.tag_id WHERE tags.name = ?)",
			query.Tag,
		)
	}

	if query.Status != "" {
		base = base.Where("contacts.status = ?", query.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []*models.Contact
	err := base.
		Preload("Tags").
		Preload("Attributes.Attribute").
		Order("contacts.created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&contacts).Error
	return contacts, total, err
}

// Update updates a contact
func (r *ContactRepository) Update(contact *models.Contact) error {
	return r.db.Save(contact).Error
}

// ReplaceTags replaces the contact's tag associations
func (r *ContactRepository) ReplaceTags(contact *models.Contact, tags []models.Tag) error {
	return r.db.Model(contact).Association("Tags").Replace(tags)
}

// UpdateLastMessageAt bumps the contact's last message timestamp
func (r *ContactRepository) UpdateLastMessageAt(contactID string, at time.Time) error {
	return r.db.Model(&models.Contact{}).Where("id = ?", contactID).
		Update("last_message_at", &at).Error
}

// DeleteByUserIDAndID deletes a contact owned by a user
func (r *ContactRepository) DeleteByUserIDAndID(userID, contactID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, contactID).Delete(&models.Contact{}).Error
}

// FindByFilters computes the retargeting target set: the conjunction of all
// enabled filters. Disabled (false/empty) filters do not constrain.
func (r *ContactRepository) FindByFilters(userID string, filters models.RetargetFilters) ([]*models.Contact, error) {
	query := r.db.Model(&models.Contact{}).
		Where("contacts.user_id = ?", userID).
		Where("contacts.status = ?", models.ContactStatusActive)

	if filters.Unread {
		query = query.Where(
			"EXISTS (SELECT 1 FROM messages WHERE messages.contact_id = contacts.id AND messages.direction = ? AND messages.status <> ?)",
			models.MessageDirectionInbound, models.MessageStatusRead,
		)
	}

	if filters.NoReply {
		// The most recent message of the conversation is inbound: the contact
		// wrote last and has not been replied to.
		query = query.Where(
			"(SELECT messages.direction FROM messages WHERE messages.contact_id = contacts.id ORDER BY messages.created_at DESC LIMIT 1) = ?",
			models.MessageDirectionInbound,
		)
	}

	if filters.Clicked {
		query = query.Where(
			"EXISTS (SELECT 1 FROM messages WHERE messages.contact_id = contacts.id AND messages.direction = ? AND messages.type IN ?)",
			models.MessageDirectionInbound, []string{"BUTTON", "INTERACTIVE"},
		)
	}

	if len(filters.Tags) > 0 {
		query = query.Where(
			"contacts.id IN (SELECT contact_tags.contact_id FROM contact_tags JOIN tags ON tags.id = contact_tags.tag_id WHERE tags.name IN ?)",
			filters.Tags,
		)
	}

	if before, ok := filters.BeforeDate(); ok {
		query = query.Where("contacts.last_message_at IS NOT NULL AND contacts.last_message_at < ?", before)
	}

	if filters.Source != "" {
		query = query.Where("contacts.source = ?", filters.Source)
	}

	var contacts []*models.Contact
	err := query.Order("contacts.created_at ASC").Find(&contacts).Error
	return contacts, err
}

// FindBySegments retrieves active contacts tagged with any of the given
// segment names. An empty segment list selects all active contacts.
func (r *ContactRepository) FindBySegments(userID string, segments []string) ([]*models.Contact, error) {
	query := r.db.Model(&models.Contact{}).
		Where("contacts.user_id = ?", userID).
		Where("contacts.status = ?", models.ContactStatusActive)

	if len(segments) > 0 {
		query = query.Where(
			"contacts.id IN (SELECT contact_tags.contact_id FROM contact_tags JOIN tags ON tags.id = contact_tags.tag_id WHERE tags.name IN ?)",
			segments,
		)
	}

	var contacts []*models.Contact
	err := query.Order("contacts.created_at ASC").Find(&contacts).Error
	return contacts, err
}

// CountByUserID counts a user's contacts
func (r *ContactRepository) CountByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
