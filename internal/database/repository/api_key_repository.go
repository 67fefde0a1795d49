package repository

import (
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create creates a new API key
func (r *APIKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// GetByKey retrieves an active API key by its value
func (r *APIKeyRepository) GetByKey(key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.db.First(&apiKey, "key = ? AND is_active = ?", key, true).Error
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// GetByUserID retrieves all API keys for a user
func (r *APIKeyRepository) GetByUserID(userID string) ([]*models.APIKey, error) {
	var keys []*models.APIKey
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// GetByUserIDAndID retrieves one API key owned by a user
func (r *APIKeyRepository) GetByUserIDAndID(userID, id string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.First(&key, "user_id = ? AND id = ?", userID, id).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Update updates an API key
func (r *APIKeyRepository) Update(key *models.APIKey) error {
	return r.db.Save(key).Error
}

// UpdateLastUsed sets the last used timestamp
func (r *APIKeyRepository) UpdateLastUsed(id string) error {
	now := time.Now()
	return r.db.Model(&models.APIKey{}).Where("id = ?", id).Update("last_used_at", &now).Error
}

// DeleteByUserIDAndID deletes an API key owned by a user
func (r *APIKeyRepository) DeleteByUserIDAndID(userID, id string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.APIKey{}).Error
}
