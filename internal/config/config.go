package config

import (
	"os"
	"strconv"
	"time"
)

// WhatsAppConfig holds WhatsApp Cloud API settings
type WhatsAppConfig struct {
	GraphAPIBaseURL    string
	GraphAPIVersion    string
	WebhookVerifyToken string
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration
}

// SMTPConfig holds outbound email settings
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	ClientURL string
}

// LoadWhatsAppConfig reads WhatsApp gateway settings from the environment
func LoadWhatsAppConfig() *WhatsAppConfig {
	return &WhatsAppConfig{
		GraphAPIBaseURL:    getEnv("WHATSAPP_GRAPH_API_URL", "https://graph.facebook.com"),
		GraphAPIVersion:    getEnv("WHATSAPP_GRAPH_API_VERSION", "v18.0"),
		WebhookVerifyToken: getEnv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", ""),
		RequestTimeout:     getEnvAsDuration("WHATSAPP_REQUEST_TIMEOUT", 15*time.Second),
		MaxRetries:         getEnvAsInt("WHATSAPP_MAX_RETRIES", 3),
		RetryBaseDelay:     getEnvAsDuration("WHATSAPP_RETRY_BASE_DELAY", 500*time.Millisecond),
	}
}

// LoadSMTPConfig reads SMTP settings from the environment
func LoadSMTPConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:      getEnv("SMTP_HOST", ""),
		Port:      getEnv("SMTP_PORT", "587"),
		Username:  getEnv("SMTP_USER", ""),
		Password:  getEnv("SMTP_PASS", ""),
		From:      getEnv("SMTP_FROM", "no-reply@localhost"),
		ClientURL: getEnv("CLIENT_URL", "http://localhost:3000"),
	}
}

// SecretKey returns the passphrase used to encrypt stored provider tokens
func SecretKey() string {
	return getEnv("SECRET_ENCRYPTION_KEY", "change-me-in-production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
