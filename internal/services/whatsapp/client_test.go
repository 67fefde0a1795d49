package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string, maxRetries int) *Client {
	return NewClient(&config.WhatsAppConfig{
		GraphAPIBaseURL: serverURL,
		GraphAPIVersion: "v20.0",
		RequestTimeout:  5 * time.Second,
		MaxRetries:      maxRetries,
		RetryBaseDelay:  time.Millisecond,
	})
}

func TestClientSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/pn-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var msg outboundMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "whatsapp", msg.MessagingProduct)
		assert.Equal(t, "text", msg.Type)
		assert.Equal(t, "491700000000", msg.To)
		require.NotNil(t, msg.Text)
		assert.Equal(t, "hello", msg.Text.Body)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.abc"}},
		})
	}))
	defer srv.Close()

	id, err := testClient(srv.URL, 0).SendText(context.Background(), "token-123", "pn-1", "491700000000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.abc", id)
}

func TestClientSendTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg outboundMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "template", msg.Type)
		require.NotNil(t, msg.Template)
		assert.Equal(t, "order_update", msg.Template.Name)
		assert.Equal(t, "en", msg.Template.Language.Code)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.tpl"}},
		})
	}))
	defer srv.Close()

	id, err := testClient(srv.URL, 0).SendTemplate(context.Background(), "t", "pn-1", "491700000000", "order_update", "en")
	require.NoError(t, err)
	assert.Equal(t, "wamid.tpl", id)
}

func TestClientVerifyPhoneNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/pn-9", r.URL.Path)
		json.NewEncoder(w).Encode(PhoneNumberInfo{
			ID: "pn-9", DisplayPhoneNumber: "+49 170 0000000", VerifiedName: "Acme GmbH",
		})
	}))
	defer srv.Close()

	info, err := testClient(srv.URL, 0).VerifyPhoneNumber(context.Background(), "t", "pn-9")
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", info.VerifiedName)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.retry"}},
		})
	}))
	defer srv.Close()

	id, err := testClient(srv.URL, 3).SendText(context.Background(), "t", "pn-1", "to", "hi")
	require.NoError(t, err)
	assert.Equal(t, "wamid.retry", id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).SendText(context.Background(), "t", "pn-1", "to", "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "bad token")
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).SendText(context.Background(), "t", "pn-1", "to", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(&config.WhatsAppConfig{
		GraphAPIBaseURL: srv.URL,
		GraphAPIVersion: "v20.0",
		RequestTimeout:  5 * time.Second,
		MaxRetries:      5,
		RetryBaseDelay:  time.Hour, // the canceled context must win over the backoff
	})
	_, err := client.SendText(ctx, "t", "pn-1", "to", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
