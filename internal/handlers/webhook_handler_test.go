package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupWebhookRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	cfg := &config.WhatsAppConfig{WebhookVerifyToken: "secret-token"}
	handler := NewWebhookHandler(db, cfg, services.NewSSEHub())

	r := gin.New()
	r.GET("/webhooks/whatsapp", handler.VerifyWebhook)
	r.POST("/webhooks/whatsapp", handler.ReceiveWebhook)
	return r
}

func seedAccount(t *testing.T, db *gorm.DB, userID, phoneNumberID string) *models.WhatsAppAccount {
	t.Helper()

	account := &models.WhatsAppAccount{
		UserID:            userID,
		PhoneNumberID:     phoneNumberID,
		BusinessAccountID: "biz-1",
		AccessTokenEnc:    "enc",
		Status:            models.AccountStatusConnected,
		IsActive:          true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func postWebhook(t *testing.T, r *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookVerification(t *testing.T) {
	db := setupTestDB(t)
	r := setupWebhookRouter(t, db)

	t.Run("valid handshake echoes raw challenge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "12345", w.Body.String())
	})

	t.Run("wrong token is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("wrong mode is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhooks/whatsapp?hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing parameters is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebhookInboundMessage(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	seedAccount(t, db, user.ID, "pn-100")
	r := setupWebhookRouter(t, db)

	payload := models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			ID: "entry-1",
			Changes: []models.WebhookChange{{
				Field: "messages",
				Value: models.WebhookValue{
					Metadata: models.WebhookMetadata{PhoneNumberID: "pn-100"},
					Messages: []models.InboundMessage{{
						From:      "4917012345678",
						ID:        "wamid.inbound-1",
						Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
						Type:      "text",
						Text:      &models.TextContent{Body: "hello there"},
					}},
				},
			}},
		}},
	}

	w := postWebhook(t, r, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	// The sender is auto-created as a whatsapp-sourced contact.
	var contact models.Contact
	require.NoError(t, db.Where("user_id = ? AND phone = ?", user.ID, "4917012345678").First(&contact).Error)
	assert.Equal(t, models.ContactSourceWhatsApp, contact.Source)
	assert.NotNil(t, contact.LastMessageAt)

	var msg models.Message
	require.NoError(t, db.Where("whats_app_message_id = ?", "wamid.inbound-1").First(&msg).Error)
	assert.Equal(t, models.MessageDirectionInbound, msg.Direction)
	assert.Equal(t, "hello there", msg.Content)
	assert.Equal(t, "TEXT", msg.Type)

	// Redelivery of the same message id is ignored.
	w = postWebhook(t, r, payload)
	assert.Equal(t, http.StatusOK, w.Code)
	var count int64
	require.NoError(t, db.Model(&models.Message{}).Where("whats_app_message_id = ?", "wamid.inbound-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookStatusUpdates(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	account := seedAccount(t, db, user.ID, "pn-200")
	r := setupWebhookRouter(t, db)

	contact := &models.Contact{UserID: user.ID, Phone: "4917099999999", Status: models.ContactStatusActive}
	require.NoError(t, db.Create(contact).Error)

	statusPayload := func(wamid, status string, errs []models.StatusError) models.WebhookPayload {
		return models.WebhookPayload{
			Object: "whatsapp_business_account",
			Entry: []models.WebhookEntry{{
				Changes: []models.WebhookChange{{
					Field: "messages",
					Value: models.WebhookValue{
						Metadata: models.WebhookMetadata{PhoneNumberID: "pn-200"},
						Statuses: []models.StatusUpdate{{
							ID:        wamid,
							Status:    status,
							Timestamp: "1756722000",
							Errors:    errs,
						}},
					},
				}},
			}},
		}
	}

	newOutbound := func(wamid string) *models.Message {
		msg := &models.Message{
			UserID:            user.ID,
			WhatsAppAccountID: account.ID,
			ContactID:         contact.ID,
			Direction:         models.MessageDirectionOutbound,
			Type:              "TEXT",
			Content:           "ping",
			Status:            models.MessageStatusSent,
			WhatsAppMessageID: wamid,
		}
		require.NoError(t, db.Create(msg).Error)
		return msg
	}

	t.Run("delivered", func(t *testing.T) {
		newOutbound("wamid.out-1")
		w := postWebhook(t, r, statusPayload("wamid.out-1", "delivered", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var msg models.Message
		require.NoError(t, db.Where("whats_app_message_id = ?", "wamid.out-1").First(&msg).Error)
		assert.Equal(t, models.MessageStatusDelivered, msg.Status)
		require.NotNil(t, msg.DeliveredAt)
		assert.Equal(t, int64(1756722000), msg.DeliveredAt.Unix())
		assert.Nil(t, msg.ReadAt)
	})

	t.Run("read", func(t *testing.T) {
		newOutbound("wamid.out-2")
		w := postWebhook(t, r, statusPayload("wamid.out-2", "read", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var msg models.Message
		require.NoError(t, db.Where("whats_app_message_id = ?", "wamid.out-2").First(&msg).Error)
		assert.Equal(t, models.MessageStatusRead, msg.Status)
		assert.NotNil(t, msg.ReadAt)
	})

	t.Run("failed records the provider error", func(t *testing.T) {
		newOutbound("wamid.out-3")
		w := postWebhook(t, r, statusPayload("wamid.out-3", "failed", []models.StatusError{
			{Code: 131047, Title: "Re-engagement message"},
		}))
		assert.Equal(t, http.StatusOK, w.Code)

		var msg models.Message
		require.NoError(t, db.Where("whats_app_message_id = ?", "wamid.out-3").First(&msg).Error)
		assert.Equal(t, models.MessageStatusFailed, msg.Status)
		assert.Equal(t, "Re-engagement message", msg.ErrorMessage)
	})

	t.Run("unknown message id is ignored", func(t *testing.T) {
		w := postWebhook(t, r, statusPayload("wamid.unknown", "delivered", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other object types are ignored", func(t *testing.T) {
		w := postWebhook(t, r, models.WebhookPayload{Object: "instagram"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
