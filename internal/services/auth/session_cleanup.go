package auth

import (
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SessionCleanupService struct {
	sessionRepo *repository.SessionRepository
	interval    time.Duration
	stopChan    chan bool
}

func NewSessionCleanupService(db *gorm.DB) *SessionCleanupService {
	return &SessionCleanupService{
		sessionRepo: repository.NewSessionRepository(db),
		interval:    24 * time.Hour,
		stopChan:    make(chan bool),
	}
}

// Start starts the session cleanup service
func (s *SessionCleanupService) Start() {
	go s.run()
	logrus.Info("Session cleanup service started")
}

// Stop stops the session cleanup service
func (s *SessionCleanupService) Stop() {
	s.stopChan <- true
	logrus.Info("Session cleanup service stopped")
}

func (s *SessionCleanupService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *SessionCleanupService) cleanup() {
	deleted, err := s.sessionRepo.DeleteExpired()
	if err != nil {
		logrus.Errorf("Failed to cleanup sessions: %v", err)
		return
	}
	if deleted > 0 {
		logrus.Infof("Session cleanup removed %d expired sessions", deleted)
	}
}
