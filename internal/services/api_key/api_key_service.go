package api_key

import (
	"errors"
	"fmt"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"gorm.io/gorm"
)

// Service handles API key operations
type Service struct {
	apiKeyRepo *repository.APIKeyRepository
	userRepo   *repository.UserRepository
}

// NewService creates a new API key service
func NewService(db *gorm.DB) *Service {
	return &Service{
		apiKeyRepo: repository.NewAPIKeyRepository(db),
		userRepo:   repository.NewUserRepository(db),
	}
}

// GenerateAPIKey creates a new API key for a user. The plaintext key is only
// returned here; listings show it as stored.
func (s *Service) GenerateAPIKey(userID, name string) (*models.APIKey, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, errors.New("user is not active")
	}

	key, err := utils.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	apiKey := &models.APIKey{
		Name:     name,
		Key:      key,
		UserID:   userID,
		IsActive: true,
	}
	if err := s.apiKeyRepo.Create(apiKey); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	return apiKey, nil
}

// ValidateAPIKey validates an API key and returns the associated user
func (s *Service) ValidateAPIKey(key string) (*models.User, error) {
	apiKey, err := s.apiKeyRepo.GetByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid API key")
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	if !apiKey.IsActive {
		return nil, errors.New("API key is not active")
	}

	user, err := s.userRepo.GetByID(apiKey.UserID)
	if err != nil {
		return nil, errors.New("invalid API key")
	}
	if !user.IsActive {
		return nil, errors.New("user is not active")
	}

	if err := s.apiKeyRepo.UpdateLastUsed(apiKey.ID); err != nil {
		// Usage tracking only, the request still proceeds.
		return user, nil
	}
	return user, nil
}

// ListAPIKeys returns the user's API keys
func (s *Service) ListAPIKeys(userID string) ([]*models.APIKey, error) {
	keys, err := s.apiKeyRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey deactivates an API key owned by the user
func (s *Service) RevokeAPIKey(userID, keyID string) error {
	apiKey, err := s.apiKeyRepo.GetByUserIDAndID(userID, keyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("API key not found")
		}
		return fmt.Errorf("failed to get API key: %w", err)
	}
	apiKey.IsActive = false
	if err := s.apiKeyRepo.Update(apiKey); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	return nil
}

// DeleteAPIKey removes an API key owned by the user
func (s *Service) DeleteAPIKey(userID, keyID string) error {
	if err := s.apiKeyRepo.DeleteByUserIDAndID(userID, keyID); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return nil
}
