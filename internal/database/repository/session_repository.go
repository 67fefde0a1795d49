package repository

import (
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// GetByToken retrieves a live session by its token
func (r *SessionRepository) GetByToken(token string) (*models.Session, error) {
	var session models.Session
	err := r.db.First(&session, "token = ? AND expires_at > ?", token, time.Now()).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByToken deletes the session for a token (logout)
func (r *SessionRepository) DeleteByToken(token string) error {
	return r.db.Delete(&models.Session{}, "token = ?", token).Error
}

// DeleteByUserID deletes all sessions of a user (password reset)
func (r *SessionRepository) DeleteByUserID(userID string) error {
	return r.db.Delete(&models.Session{}, "user_id = ?", userID).Error
}

// DeleteExpired removes expired sessions, returning the number deleted
func (r *SessionRepository) DeleteExpired() (int64, error) {
	result := r.db.Delete(&models.Session{}, "expires_at < ?", time.Now())
	return result.RowsAffected, result.Error
}
