package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/config"

	"github.com/sirupsen/logrus"
)

// Gateway is the outbound surface of the WhatsApp Cloud API used by the
// platform. Implemented by Client; test doubles implement it in-memory.
type Gateway interface {
	VerifyPhoneNumber(ctx context.Context, accessToken, phoneNumberID string) (*PhoneNumberInfo, error)
	SendText(ctx context.Context, accessToken, phoneNumberID, to, body string) (string, error)
	SendTemplate(ctx context.Context, accessToken, phoneNumberID, to, templateName, languageCode string) (string, error)
}

// PhoneNumberInfo is the provider's description of a connected phone number
type PhoneNumberInfo struct {
	ID                 string `json:"id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	VerifiedName       string `json:"verified_name"`
}

// ProviderError carries the provider's error payload so handlers can attach
// it to a 400 response instead of swallowing it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected request (%d): %s", e.StatusCode, e.Body)
}

// Client talks to the WhatsApp Cloud API (Graph API). Each call runs under
// the configured timeout and is retried with exponential backoff up to the
// configured cap. 4xx provider rejections are not retried.
type Client struct {
	cfg        *config.WhatsAppConfig
	httpClient *http.Client
}

func NewClient(cfg *config.WhatsAppConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type textPayload struct {
	Body string `json:"body"`
}

type languagePayload struct {
	Code string `json:"code"`
}

type templatePayload struct {
	Name     string          `json:"name"`
	Language languagePayload `json:"language"`
}

type outboundMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// VerifyPhoneNumber checks an access token against the Graph API by fetching
// the phone number object.
func (c *Client) VerifyPhoneNumber(ctx context.Context, accessToken, phoneNumberID string) (*PhoneNumberInfo, error) {
	url := fmt.Sprintf("%s/%s/%s", c.cfg.GraphAPIBaseURL, c.cfg.GraphAPIVersion, phoneNumberID)

	body, err := c.doWithRetry(ctx, http.MethodGet, url, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var info PhoneNumberInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode phone number info: %w", err)
	}
	return &info, nil
}

// SendText sends a plain text message and returns the provider message id
func (c *Client) SendText(ctx context.Context, accessToken, phoneNumberID, to, body string) (string, error) {
	msg := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: body},
	}
	return c.send(ctx, accessToken, phoneNumberID, msg)
}

// SendTemplate sends an approved template message and returns the provider message id
func (c *Client) SendTemplate(ctx context.Context, accessToken, phoneNumberID, to, templateName, languageCode string) (string, error) {
	msg := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &templatePayload{
			Name:     templateName,
			Language: languagePayload{Code: languageCode},
		},
	}
	return c.send(ctx, accessToken, phoneNumberID, msg)
}

func (c *Client) send(ctx context.Context, accessToken, phoneNumberID string, msg outboundMessage) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/messages", c.cfg.GraphAPIBaseURL, c.cfg.GraphAPIVersion, phoneNumberID)

	respBody, err := c.doWithRetry(ctx, http.MethodPost, url, accessToken, msg)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("provider returned no message id")
	}
	return resp.Messages[0].ID, nil
}

func (c *Client) doWithRetry(ctx context.Context, method, url, accessToken string, payload interface{}) ([]byte, error) {
	var lastErr error
	delay := c.cfg.RetryBaseDelay

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
			logrus.Debugf("Retrying %s %s (attempt %d)", method, url, attempt+1)
		}

		body, retryable, err := c.do(ctx, method, url, accessToken, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, method, url, accessToken string, payload interface{}) ([]byte, bool, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, false, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures and timeouts are retryable.
		return nil, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode >= 500 {
		return nil, true, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode >= 400 {
		return nil, false, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, false, nil
}
