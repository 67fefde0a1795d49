package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"

	"github.com/sirupsen/logrus"
)

// EmailService sends transactional emails over SMTP
type EmailService struct {
	cfg *config.SMTPConfig
}

func NewEmailService(cfg *config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendVerificationEmail sends the post-registration verification link
func (s *EmailService) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.ClientURL, token)
	body := fmt.Sprintf(
		"<h1>Welcome!</h1><p>Please click the link below to verify your email:</p><a href=%q>Verify Email</a>",
		link,
	)
	return s.send(to, "Verify your email", body)
}

// SendPasswordResetEmail sends the password reset link, valid for one hour
func (s *EmailService) SendPasswordResetEmail(to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.ClientURL, token)
	body := fmt.Sprintf(
		"<h1>Password Reset</h1><p>Click the link below to reset your password:</p><a href=%q>Reset Password</a><p>This link expires in 1 hour.</p>",
		link,
	)
	return s.send(to, "Password Reset", body)
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	if s.cfg.Host == "" {
		logrus.Debugf("SMTP not configured, skipping email %q to %s", subject, to)
		return errors.New("smtp not configured")
	}

	headers := []string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody)

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg)
}
