package repository

import (
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetByWhatsAppMessageID retrieves a message by its provider id. This is the
// correlation key for asynchronous status callbacks.
func (r *MessageRepository) GetByWhatsAppMessageID(whatsappMessageID string) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, "whats_app_message_id = ?", whatsappMessageID).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetByUserIDAndID retrieves a message owned by a user
func (r *MessageRepository) GetByUserIDAndID(userID, messageID string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("user_id = ? AND id = ?", userID, messageID).
		Preload("Contact").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Update updates a message
func (r *MessageRepository) Update(message *models.Message) error {
	return r.db.Save(message).Error
}

// List retrieves a page of messages matching the query filters
func (r *MessageRepository) List(userID string, query models.MessageListQuery) ([]*models.Message, int64, error) {
	base := r.db.Model(&models.Message{}).Where("user_id = ?", userID)

	if query.ContactID != "" {
		base = base.Where("contact_id = ?", query.ContactID)
	}
	if query.Direction != "" {
		base = base.Where("direction = ?", query.Direction)
	}
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []*models.Message
	err := base.Preload("Contact").
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&messages).Error
	return messages, total, err
}

// Analytics aggregates message counters for a user's dashboard overview
func (r *MessageRepository) Analytics(userID string) (*models.MessageAnalytics, error) {
	analytics := &models.MessageAnalytics{}

	type statusCount struct {
		Status string
		Count  int
	}
	var counts []statusCount
	err := r.db.Model(&models.Message{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ? AND direction = ?", userID, models.MessageDirectionOutbound).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	for _, c := range counts {
		analytics.TotalMessages += c.Count
		switch c.Status {
		case models.MessageStatusSent:
			analytics.Sent += c.Count
		case models.MessageStatusDelivered:
			analytics.Delivered += c.Count
		case models.MessageStatusRead:
			analytics.Read += c.Count
		case models.MessageStatusFailed:
			analytics.Failed += c.Count
		}
	}

	// Delivered and read both count as delivered for rate purposes.
	if analytics.TotalMessages > 0 {
		delivered := analytics.Delivered + analytics.Read
		analytics.DeliveryRate = float64(delivered) / float64(analytics.TotalMessages)
		analytics.ReadRate = float64(analytics.Read) / float64(analytics.TotalMessages)
	}

	var activeContacts int64
	err = r.db.Model(&models.Message{}).
		Where("user_id = ?", userID).
		Distinct("contact_id").
		Count(&activeContacts).Error
	if err != nil {
		return nil, err
	}
	analytics.ActiveContacts = int(activeContacts)

	return analytics, nil
}
