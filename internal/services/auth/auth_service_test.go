package auth

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func setupTestService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:authtestdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	// No SMTP in tests; registration tolerates a nil mailer.
	return NewAuthService(db, nil), db
}

func registerTestUser(t *testing.T, svc *AuthService, email string) *models.User {
	t.Helper()

	user, err := svc.Register(&models.RegisterRequest{
		Email:     email,
		Password:  "str0ngpass",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _ := setupTestService(t)

	user := registerTestUser(t, svc, "ana@example.com")
	assert.True(t, user.IsActive)
	assert.False(t, user.IsEmailVerified)
	assert.NotEmpty(t, user.EmailVerifyToken)
	assert.NotEqual(t, "str0ngpass", user.PasswordHash)

	_, err := svc.Register(&models.RegisterRequest{
		Email: "ana@example.com", Password: "whatever1", FirstName: "Dup",
	})
	assert.ErrorContains(t, err, "already exists")

	resp, err := svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "wrong"}, "go-test", "127.0.0.1")
	assert.ErrorContains(t, err, "invalid credentials")

	_, err = svc.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestAuthValidateTokenAndLogout(t *testing.T) {
	svc, _ := setupTestService(t)
	user := registerTestUser(t, svc, "ana@example.com")

	resp, err := svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	info, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.UserID)
	assert.Equal(t, "ana@example.com", info.Email)
	assert.False(t, info.IsAdmin)

	// Logout revokes the session even though the JWT itself is still unexpired.
	require.NoError(t, svc.Logout(resp.Token))
	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorContains(t, err, "session not found")

	_, err = svc.ValidateToken("not-a-jwt")
	assert.ErrorContains(t, err, "invalid or expired token")
}

func TestAuthVerifyEmail(t *testing.T) {
	svc, db := setupTestService(t)
	user := registerTestUser(t, svc, "ana@example.com")

	assert.ErrorContains(t, svc.VerifyEmail("bogus"), "invalid verification token")

	require.NoError(t, svc.VerifyEmail(user.EmailVerifyToken))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, reloaded.IsEmailVerified)
	assert.Empty(t, reloaded.EmailVerifyToken)
}

func TestAuthPasswordReset(t *testing.T) {
	svc, db := setupTestService(t)
	registerTestUser(t, svc, "ana@example.com")

	// Unknown addresses are silently accepted.
	assert.NoError(t, svc.ForgotPassword("nobody@example.com"))

	require.NoError(t, svc.ForgotPassword("ana@example.com"))
	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "ana@example.com").Error)
	require.NotEmpty(t, user.ResetToken)

	// A live session is revoked by the reset.
	resp, err := svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(user.ResetToken, "newpassword1"))

	_, err = svc.ValidateToken(resp.Token)
	assert.Error(t, err)

	_, err = svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	assert.ErrorContains(t, err, "invalid credentials")
	_, err = svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "newpassword1"}, "go-test", "127.0.0.1")
	assert.NoError(t, err)

	assert.ErrorContains(t, svc.ResetPassword("bogus", "irrelevant1"), "invalid or expired")
}

func TestAuthChangePassword(t *testing.T) {
	svc, _ := setupTestService(t)
	user := registerTestUser(t, svc, "ana@example.com")

	assert.ErrorContains(t, svc.ChangePassword(user.ID, "wrong", "newpassword1"), "current password is incorrect")

	require.NoError(t, svc.ChangePassword(user.ID, "str0ngpass", "newpassword1"))
	_, err := svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "newpassword1"}, "go-test", "127.0.0.1")
	assert.NoError(t, err)
}

func TestAuthSetUserActive(t *testing.T) {
	svc, _ := setupTestService(t)
	user := registerTestUser(t, svc, "ana@example.com")

	resp, err := svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	deactivated, err := svc.SetUserActive(user.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	// Deactivation revokes sessions and blocks new logins.
	_, err = svc.ValidateToken(resp.Token)
	assert.Error(t, err)
	_, err = svc.Login(&models.LoginRequest{Email: "ana@example.com", Password: "str0ngpass"}, "go-test", "127.0.0.1")
	assert.ErrorContains(t, err, "deactivated")

	reactivated, err := svc.SetUserActive(user.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)

	_, err = svc.SetUserActive("00000000-0000-0000-0000-000000000000", true)
	assert.ErrorContains(t, err, "not found")
}
