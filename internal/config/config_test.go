package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets environment variables for the duration of the test.
// Empty values clear the variable so defaults apply.
func setupTestEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for key, value := range envVars {
		t.Setenv(key, value)
	}
}

func baseEnv(t *testing.T) map[string]string {
	return map[string]string{
		"DISCORD_API_BASE_URL":  "",
		"DISCORD_USER_AGENT":    "",
		"RATE_LIMIT_PER_SECOND": "",
		"POLL_INTERVAL":         "",
		"MESSAGE_LIMIT":         "",
		"DATA_DIR":              t.TempDir(),
		"CREDENTIAL_TTL_DAYS":   "",
		"TOKEN_ENCRYPTION_KEY":  "",
		"LOG_LEVEL":             "",
		"LOG_FORMAT":            "",
		"LOG_FILE":              "",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	env := baseEnv(t)
	setupTestEnv(t, env)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://discord.com/api/v10", cfg.Discord.APIBaseURL)
	assert.Equal(t, 50, cfg.Discord.RateLimitPerSecond)
	assert.Contains(t, cfg.Discord.UserAgent, "DiscordBot")
	assert.Equal(t, 3*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 50, cfg.Polling.MessageLimit)
	assert.Equal(t, env["DATA_DIR"], cfg.Storage.DataDir)
	assert.Equal(t, 30, cfg.Storage.CredentialTTLDays)
	assert.Equal(t, 30*24*time.Hour, cfg.Storage.CredentialTTL())
	assert.Empty(t, cfg.Security.TokenEncryptionKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(env["DATA_DIR"], "discordlite.log"), cfg.Logging.File)
	assert.Equal(t, filepath.Join(env["DATA_DIR"], "discordlite.db"), cfg.Storage.DatabasePath())
	assert.Equal(t, filepath.Join(env["DATA_DIR"], "token.key"), cfg.Storage.KeyPath())
}

func TestLoadConfigOverrides(t *testing.T) {
	env := baseEnv(t)
	env["DISCORD_API_BASE_URL"] = "http://127.0.0.1:9999/api/v10"
	env["POLL_INTERVAL"] = "5s"
	env["MESSAGE_LIMIT"] = "25"
	env["CREDENTIAL_TTL_DAYS"] = "7"
	env["TOKEN_ENCRYPTION_KEY"] = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	env["LOG_LEVEL"] = "debug"
	env["LOG_FORMAT"] = "console"
	setupTestEnv(t, env)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999/api/v10", cfg.Discord.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 25, cfg.Polling.MessageLimit)
	assert.Equal(t, 7, cfg.Storage.CredentialTTLDays)
	assert.Len(t, cfg.Security.TokenEncryptionKey, 32)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	setupTestEnv(t, baseEnv(t))

	envFile := filepath.Join(t.TempDir(), "client.env")
	require.NoError(t, os.WriteFile(envFile, []byte("POLL_INTERVAL=10s\nLOG_LEVEL=warn\n"), 0o600))
	// godotenv never overrides variables that are already present
	require.NoError(t, os.Unsetenv("POLL_INTERVAL"))
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad poll interval", "POLL_INTERVAL", "soon", "POLL_INTERVAL"},
		{"poll interval too short", "POLL_INTERVAL", "10ms", "POLL_INTERVAL must be at least"},
		{"message limit above page", "MESSAGE_LIMIT", "100", "MESSAGE_LIMIT must be between"},
		{"message limit not a number", "MESSAGE_LIMIT", "many", "invalid MESSAGE_LIMIT"},
		{"relative base url", "DISCORD_API_BASE_URL", "/api/v10", "DISCORD_API_BASE_URL"},
		{"ttl zero", "CREDENTIAL_TTL_DAYS", "0", "CREDENTIAL_TTL_DAYS must be positive"},
		{"key not hex", "TOKEN_ENCRYPTION_KEY", "zz", "must be a hex-encoded string"},
		{"key too short", "TOKEN_ENCRYPTION_KEY", "0123456789abcdef", "exactly 32 bytes"},
		{"bad log level", "LOG_LEVEL", "trace", "LOG_LEVEL must be one of"},
		{"bad log format", "LOG_FORMAT", "xml", "LOG_FORMAT must be one of"},
		{"rate limit zero", "RATE_LIMIT_PER_SECOND", "0", "RATE_LIMIT_PER_SECOND must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv(t)
			env[tt.key] = tt.value
			setupTestEnv(t, env)

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
