package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robfig/cron/v3"
)

// Config holds the process-level configuration read from the
// environment at startup. Translation parameters that the UI can change
// at runtime live in Settings instead.
//
// Environment Variables:
// Server:
// - LISTEN_ADDR: HTTP listen address (default: :8000)
// - DATA_DIR: root directory for uploads, outputs, cache and settings
//   (default: ./data)
//
// LLM Endpoint:
// - LLM_API_URL: API endpoint URL (default: https://generativelanguage.googleapis.com/v1beta/openai)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
//
// Maintenance:
// - CLEANUP_CRON: schedule for the upload cleanup sweep (default: 0 * * * *)
// - UPLOAD_RETENTION_HOURS: age after which uploads are removed (default: 24)
type Config struct {
	Server      ServerConfig      `json:"server"`
	LLM         LLMEndpointConfig `json:"llm"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	DataDir    string `json:"data_dir"`
}

// LLMEndpointConfig holds the endpoint-level parameters that are not
// user-tunable through the settings UI.
type LLMEndpointConfig struct {
	APIURL    string `json:"api_url"`
	MaxTokens int    `json:"max_tokens"`
	Timeout   int    `json:"timeout"`
}

type MaintenanceConfig struct {
	CleanupCron    string `json:"cleanup_cron"`
	RetentionHours int    `json:"retention_hours"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", ":8000"),
			DataDir:    getEnvString("DATA_DIR", "./data"),
		},
		LLM: LLMEndpointConfig{
			APIURL:    getEnvString("LLM_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 8000),
			Timeout:   getEnvInt("LLM_TIMEOUT", 120),
		},
		Maintenance: MaintenanceConfig{
			CleanupCron:    getEnvString("CLEANUP_CRON", "0 * * * *"),
			RetentionHours: getEnvInt("UPLOAD_RETENTION_HOURS", 24),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Server.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if _, err := cron.ParseStandard(c.Maintenance.CleanupCron); err != nil {
		return fmt.Errorf("invalid CLEANUP_CRON: %w", err)
	}
	if c.Maintenance.RetentionHours <= 0 {
		return fmt.Errorf("UPLOAD_RETENTION_HOURS must be positive")
	}
	return nil
}

// UploadDir is where uploaded subtitle and video files land.
func (c *Config) UploadDir() string {
	return filepath.Join(c.Server.DataDir, "uploads")
}

// TranslatedDir is where finished translations are written.
func (c *Config) TranslatedDir() string {
	return filepath.Join(c.Server.DataDir, "translated")
}

// CachePath is the sqlite translation cache database file.
func (c *Config) CachePath() string {
	return filepath.Join(c.Server.DataDir, "translation_cache.db")
}

// SettingsPath is the persisted runtime settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Server.DataDir, "config.json")
}

// EnsureDirs creates the data directory layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Server.DataDir, c.UploadDir(), c.TranslatedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
