// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// TelegramConfig provides settings for the telegram transport client.
type TelegramConfig interface {
	GetBotToken() string
	GetTelegramBaseURL() string
	GetPollTimeout() time.Duration
	GetAdminChannelID() int64
}

// RedisConfig provides settings for redis-backed components.
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// HTTPConfig provides settings for the liveness HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
}

// ReconcilerConfig provides settings for the order reconciliation loop.
type ReconcilerConfig interface {
	GetReconcileInterval() time.Duration
}

// UploadConfig provides gating limits for inbound media.
type UploadConfig interface {
	GetMaxUploadBytes() int64
}

// PaymentConfig provides settings for payment instructions.
type PaymentConfig interface {
	GetPaymentAccount() string
	IsPaymentQREnabled() bool
}

// ContentConfig provides stored file ids for static guide content.
type ContentConfig interface {
	GetTutorialVideoFileID() string
	GetTutorialVideoCaption() string
	GetSampleFileIDs() []string
	GetSampleCaptions() []string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketEvidence() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	RedisURL             string
	BotToken             string
	TelegramBaseURL      string
	PollTimeout          time.Duration
	AdminChannelID       int64
	ReconcileInterval    time.Duration
	MaxUploadBytes       int64
	PaymentAccount       string
	PaymentQREnabled     bool
	TutorialVideoFileID  string
	TutorialVideoCaption string
	SampleFileIDs        []string
	SampleCaptions       []string
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketEvidence  string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// TelegramConfig implementation
func (c *Config) GetBotToken() string            { return c.BotToken }
func (c *Config) GetTelegramBaseURL() string     { return c.TelegramBaseURL }
func (c *Config) GetPollTimeout() time.Duration  { return c.PollTimeout }
func (c *Config) GetAdminChannelID() int64       { return c.AdminChannelID }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool {
	return c.RedisURL != ""
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// ReconcilerConfig implementation
func (c *Config) GetReconcileInterval() time.Duration { return c.ReconcileInterval }

// UploadConfig implementation
func (c *Config) GetMaxUploadBytes() int64 { return c.MaxUploadBytes }

// PaymentConfig implementation
func (c *Config) GetPaymentAccount() string  { return c.PaymentAccount }
func (c *Config) IsPaymentQREnabled() bool   { return c.PaymentQREnabled && c.PaymentAccount != "" }

// ContentConfig implementation
func (c *Config) GetTutorialVideoFileID() string  { return c.TutorialVideoFileID }
func (c *Config) GetTutorialVideoCaption() string { return c.TutorialVideoCaption }
func (c *Config) GetSampleFileIDs() []string      { return c.SampleFileIDs }
func (c *Config) GetSampleCaptions() []string     { return c.SampleCaptions }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketEvidence() string { return c.MinioBucketEvidence }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	adminChannelID, err := strconv.ParseInt(getEnv("ADMIN_CHANNEL_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CHANNEL_ID must be a numeric chat id: %w", err)
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		BotToken:             getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramBaseURL:      getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		PollTimeout:          mustDuration(getEnv("TELEGRAM_POLL_TIMEOUT", "30s")),
		AdminChannelID:       adminChannelID,
		ReconcileInterval:    mustDuration(getEnv("ORDER_RECONCILE_INTERVAL", "5m")),
		MaxUploadBytes:       mustInt64(getEnv("MAX_UPLOAD_BYTES", "5242880")),
		PaymentAccount:       getEnv("PAYMENT_ACCOUNT", ""),
		PaymentQREnabled:     strings.EqualFold(getEnv("PAYMENT_QR_ENABLED", "true"), "true"),
		TutorialVideoFileID:  getEnv("TUTORIAL_VIDEO_FILE_ID", ""),
		TutorialVideoCaption: getEnv("TUTORIAL_VIDEO_CAPTION", ""),
		SampleFileIDs:        splitCSV(getEnv("SAMPLE_CV_FILE_IDS", "")),
		SampleCaptions:       splitCSV(getEnv("SAMPLE_CV_CAPTIONS", "")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketEvidence:  getEnv("MINIO_BUCKET_EVIDENCE", "payment-evidence"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AdminChannelID == 0 {
		return nil, fmt.Errorf("ADMIN_CHANNEL_ID is required")
	}
	if cfg.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("ORDER_RECONCILE_INTERVAL must be a positive duration")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
