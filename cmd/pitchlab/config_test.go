package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "./data/pitchlab.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.ScoringModel)
	assert.Equal(t, "gpt-4", cfg.LLM.SummaryModel)
	assert.Equal(t, "text-embedding-ada-002", cfg.LLM.EmbeddingModel)
	assert.InDelta(t, 0.4, cfg.LLM.ScoringTemperature, 0.001)
	assert.InDelta(t, 0.7, cfg.LLM.SummaryTemperature, 0.001)
	assert.Equal(t, 8, cfg.Scoring.MaxConcurrent)
	assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 0, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieval.SearchK)
	assert.True(t, cfg.Summarizer.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Summarizer.Interval)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 60s

database:
  dsn: "/tmp/test.db"

log:
  level: "debug"
  format: "text"

llm:
  scoring_model: "gpt-4o-mini"
  scoring_temperature: 0.2

summarizer:
  enabled: false
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ScoringModel)
	assert.InDelta(t, 0.2, cfg.LLM.ScoringTemperature, 0.001)
	assert.False(t, cfg.Summarizer.Enabled)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("PITCHLAB_SERVER_HOST", "192.168.1.1")
	t.Setenv("PITCHLAB_SERVER_PORT", "3000")
	t.Setenv("PITCHLAB_DATABASE_DSN", "/custom/path.db")
	t.Setenv("PITCHLAB_LLM_API_KEY", "sk-env-key")
	t.Setenv("PITCHLAB_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.Equal(t, "sk-env-key", cfg.LLM.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err) // Should not error, just use defaults

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Secret Resolution Tests
// =============================================================================

func TestResolveSecrets_FromFiles(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "token_secret")
	keyFile := filepath.Join(dir, "openai_key")
	passFile := filepath.Join(dir, "passphrase")
	require.NoError(t, os.WriteFile(secretFile, []byte("file-secret\n"), 0600))
	require.NoError(t, os.WriteFile(keyFile, []byte("sk-file-key\n"), 0600))
	require.NoError(t, os.WriteFile(passFile, []byte("file-passphrase\n"), 0600))

	cfg := &Config{
		Auth:   AuthConfig{TokenSecret: "inline-ignored", TokenSecretFile: secretFile},
		LLM:    LLMConfig{APIKeyFile: keyFile},
		Crypto: CryptoConfig{PassphraseFile: passFile},
	}

	require.NoError(t, cfg.ResolveSecrets())

	// File wins over inline, trailing newline trimmed
	assert.Equal(t, "file-secret", cfg.Auth.TokenSecret)
	assert.Equal(t, "sk-file-key", cfg.LLM.APIKey)
	assert.Equal(t, "file-passphrase", cfg.Crypto.Passphrase)
}

func TestResolveSecrets_InlineFallback(t *testing.T) {
	cfg := &Config{
		Auth:   AuthConfig{TokenSecret: "inline-secret"},
		LLM:    LLMConfig{APIKey: "sk-inline"},
		Crypto: CryptoConfig{Passphrase: "inline-passphrase"},
	}

	require.NoError(t, cfg.ResolveSecrets())

	assert.Equal(t, "inline-secret", cfg.Auth.TokenSecret)
}

func TestResolveSecrets_Missing(t *testing.T) {
	cfg := &Config{
		LLM:    LLMConfig{APIKey: "sk-inline"},
		Crypto: CryptoConfig{Passphrase: "inline-passphrase"},
	}

	err := cfg.ResolveSecrets()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.token_secret")
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_JSONFormat(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}

	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

func TestSetupLogger_TextFormat(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "invalid",
			Format: "json",
		},
	}

	// Should fall back to info level, not panic
	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestConfig_Address(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
	}

	assert.Equal(t, "localhost:8000", cfg.Server.Address())
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PITCHLAB_SERVER_HOST",
		"PITCHLAB_SERVER_PORT",
		"PITCHLAB_DATABASE_DSN",
		"PITCHLAB_LLM_API_KEY",
		"PITCHLAB_LOG_LEVEL",
		"PITCHLAB_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
