package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo     *repository.UserRepository
	sessionRepo  *repository.SessionRepository
	emailService *services.EmailService
	jwtSecret    []byte
	tokenTTL     time.Duration
}

func NewAuthService(db *gorm.DB, emailService *services.EmailService) *AuthService {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("default-secret-key-change-in-production")
	}

	tokenTTL := 7 * 24 * time.Hour
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			tokenTTL = parsed
		}
	}

	return &AuthService{
		userRepo:     repository.NewUserRepository(db),
		sessionRepo:  repository.NewSessionRepository(db),
		emailService: emailService,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

// Register registers a new user and sends a verification email
func (s *AuthService) Register(req *models.RegisterRequest) (*models.User, error) {
	exists, err := s.userRepo.CheckEmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verifyToken, err := utils.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	user := &models.User{
		Email:            req.Email,
		PasswordHash:     string(hashedPassword),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		IsActive:         true,
		EmailVerifyToken: verifyToken,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendVerificationEmail(user.Email, verifyToken); err != nil {
			// Registration stands even when the mail cannot be delivered.
			logrus.Warnf("Failed to send verification email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Login authenticates a user and opens a session
func (s *AuthService) Login(req *models.LoginRequest, userAgent, ipAddress string) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, err := s.generateToken(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		logrus.Warnf("Failed to update last login for %s: %v", user.ID, err)
	}

	return &models.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}

// Logout deletes the session for a token
func (s *AuthService) Logout(token string) error {
	return s.sessionRepo.DeleteByToken(token)
}

// ValidateToken parses a JWT and checks that its session is still live.
// A token without a session row is invalid even before its JWT expiry;
// logout and password reset revoke this way.
func (s *AuthService) ValidateToken(tokenString string) (*models.TokenInfo, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if _, err := s.sessionRepo.GetByToken(tokenString); err != nil {
		return nil, errors.New("session not found")
	}

	return &models.TokenInfo{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyEmail marks a user's email as verified
func (s *AuthService) VerifyEmail(token string) error {
	user, err := s.userRepo.GetByVerifyToken(token)
	if err != nil {
		return errors.New("invalid verification token")
	}

	user.IsEmailVerified = true
	user.EmailVerifyToken = ""
	return s.userRepo.Update(user)
}

// ForgotPassword issues a reset token and mails a reset link. The caller's
// response must not reveal whether the email exists.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	resetToken, err := utils.GenerateToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(time.Hour)
	user.ResetToken = resetToken
	user.ResetTokenExpires = &expires
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendPasswordResetEmail(user.Email, resetToken); err != nil {
			logrus.Warnf("Failed to send reset email to %s: %v", user.Email, err)
		}
	}

	return nil
}

// ResetPassword sets a new password and invalidates all sessions
func (s *AuthService) ResetPassword(token, password string) error {
	user, err := s.userRepo.GetByResetToken(token)
	if err != nil {
		return errors.New("invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.sessionRepo.DeleteByUserID(user.ID)
}

// ChangePassword changes a user's own password after verifying the current one
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Update(user)
}

// GetUser returns a user by id
func (s *AuthService) GetUser(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// ListUsers returns every user account
func (s *AuthService) ListUsers() ([]*models.User, error) {
	return s.userRepo.GetAll()
}

// SetUserActive activates or deactivates a user. Deactivation revokes
// all of the user's sessions.
func (s *AuthService) SetUserActive(userID string, isActive bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	user.IsActive = isActive
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if !isActive {
		if err := s.sessionRepo.DeleteByUserID(user.ID); err != nil {
			logrus.Warnf("Failed to revoke sessions for %s: %v", user.ID, err)
		}
	}

	return user, nil
}

// AdminResetPassword sets a new password for a user without requiring
// the current one, and revokes all of the user's sessions.
func (s *AuthService) AdminResetPassword(userID, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("user not found")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.sessionRepo.DeleteByUserID(user.ID)
}

// DeleteUser removes a user account and revokes all of its sessions
func (s *AuthService) DeleteUser(userID string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("user not found")
	}

	if err := s.sessionRepo.DeleteByUserID(user.ID); err != nil {
		logrus.Warnf("Failed to revoke sessions for %s: %v", user.ID, err)
	}
	return s.userRepo.Delete(user.ID)
}

// CreateAdminUser creates the bootstrap admin account if it does not exist
func (s *AuthService) CreateAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.userRepo.CheckEmailExists(email)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:           email,
		PasswordHash:    string(hashedPassword),
		FirstName:       "Admin",
		IsActive:        true,
		IsAdmin:         true,
		IsEmailVerified: true,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.Infof("Created admin user %s", email)
	return nil
}

func (s *AuthService) generateToken(user *models.User, expiresAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
