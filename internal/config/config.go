// Package config provides application configuration management using environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Discord  DiscordConfig
	Polling  PollingConfig
	Storage  StorageConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// DiscordConfig holds Discord REST API configuration
type DiscordConfig struct {
	APIBaseURL         string
	UserAgent          string
	RateLimitPerSecond int
}

// PollingConfig holds message synchronization configuration
type PollingConfig struct {
	Interval     time.Duration
	MessageLimit int
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	DataDir           string
	CredentialTTLDays int
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	// TokenEncryptionKey encrypts the stored bot token. Empty means a key file
	// is generated inside the data directory.
	TokenEncryptionKey []byte
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

const (
	defaultAPIBaseURL   = "https://discord.com/api/v10"
	defaultUserAgent    = "DiscordBot (https://github.com/parsascontentcorner/discordlite, 1.0)"
	MaxMessageLimit     = 50
	defaultPollInterval = 3 * time.Second
)

// Load loads configuration from environment variables.
// envFiles are loaded first if they exist; with none given a ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}

	rateLimit, err := getEnvInt("RATE_LIMIT_PER_SECOND", 50)
	if err != nil {
		return nil, err
	}
	cfg.Discord = DiscordConfig{
		APIBaseURL:         getEnv("DISCORD_API_BASE_URL", defaultAPIBaseURL),
		UserAgent:          getEnv("DISCORD_USER_AGENT", defaultUserAgent),
		RateLimitPerSecond: rateLimit,
	}

	interval, err := time.ParseDuration(getEnv("POLL_INTERVAL", defaultPollInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	limit, err := getEnvInt("MESSAGE_LIMIT", MaxMessageLimit)
	if err != nil {
		return nil, err
	}
	cfg.Polling = PollingConfig{
		Interval:     interval,
		MessageLimit: limit,
	}

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir, err = defaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	ttlDays, err := getEnvInt("CREDENTIAL_TTL_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cfg.Storage = StorageConfig{
		DataDir:           dataDir,
		CredentialTTLDays: ttlDays,
	}

	encryptionKeyHex := getEnv("TOKEN_ENCRYPTION_KEY", "")
	encryptionKey, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_ENCRYPTION_KEY: must be a hex-encoded string: %w", err)
	}
	cfg.Security = SecurityConfig{
		TokenEncryptionKey: encryptionKey,
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		File:   getEnv("LOG_FILE", filepath.Join(dataDir, "discordlite.log")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Discord.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("DISCORD_API_BASE_URL must be an absolute http(s) URL")
	}
	if c.Discord.RateLimitPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive")
	}

	if c.Polling.Interval < 500*time.Millisecond {
		return fmt.Errorf("POLL_INTERVAL must be at least 500ms")
	}
	if c.Polling.MessageLimit <= 0 || c.Polling.MessageLimit > MaxMessageLimit {
		return fmt.Errorf("MESSAGE_LIMIT must be between 1 and %d", MaxMessageLimit)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Storage.CredentialTTLDays <= 0 {
		return fmt.Errorf("CREDENTIAL_TTL_DAYS must be positive")
	}

	if n := len(c.Security.TokenEncryptionKey); n != 0 && n != 32 {
		return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 32 bytes (64 hex characters) for AES-256")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// CredentialTTL returns how long remembered credentials stay valid.
func (c *StorageConfig) CredentialTTL() time.Duration {
	return time.Duration(c.CredentialTTLDays) * 24 * time.Hour
}

// DatabasePath returns the sqlite file inside the data directory.
func (c *StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "discordlite.db")
}

// KeyPath returns the generated encryption key file inside the data directory.
func (c *StorageConfig) KeyPath() string {
	return filepath.Join(c.DataDir, "token.key")
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir (set DATA_DIR): %w", err)
	}
	return filepath.Join(base, "discordlite"), nil
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer: %w", key, err)
	}
	return value, nil
}
