package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pitchlab/pitchlab/internal/core/secrets"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Crypto     CryptoConfig     `mapstructure:"crypto"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds token signing configuration.
// The secret can be supplied inline or through a file, matching how the
// deployment mounts Docker secrets.
type AuthConfig struct {
	TokenSecret     string        `mapstructure:"token_secret"`
	TokenSecretFile string        `mapstructure:"token_secret_file"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
}

// LLMConfig holds the model backend configuration.
type LLMConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIKeyFile string `mapstructure:"api_key_file"`
	BaseURL    string `mapstructure:"base_url"`

	ScoringModel   string `mapstructure:"scoring_model"`
	SummaryModel   string `mapstructure:"summary_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`

	ScoringTemperature float32 `mapstructure:"scoring_temperature"`
	SummaryTemperature float32 `mapstructure:"summary_temperature"`
}

// CryptoConfig holds the at-rest encryption configuration for stored
// tenant API keys.
type CryptoConfig struct {
	Passphrase     string `mapstructure:"passphrase"`
	PassphraseFile string `mapstructure:"passphrase_file"`
}

// ScoringConfig holds scoring engine tuning.
type ScoringConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
}

// RetrievalConfig holds knowledge base chunking and search tuning.
type RetrievalConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	SearchK      int `mapstructure:"search_k"`
}

// SummarizerConfig holds background summary refresher tuning.
type SummarizerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s") // scoring holds the request open
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/pitchlab.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_secret_file", "")
	v.SetDefault("auth.token_ttl", "30m")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_file", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.scoring_model", "gpt-3.5-turbo")
	v.SetDefault("llm.summary_model", "gpt-4")
	v.SetDefault("llm.embedding_model", "text-embedding-ada-002")
	v.SetDefault("llm.scoring_temperature", 0.4)
	v.SetDefault("llm.summary_temperature", 0.7)

	v.SetDefault("crypto.passphrase", "")
	v.SetDefault("crypto.passphrase_file", "")

	v.SetDefault("scoring.max_concurrent", 8)
	v.SetDefault("scoring.call_timeout", "60s")

	v.SetDefault("retrieval.chunk_size", 1000)
	v.SetDefault("retrieval.chunk_overlap", 0)
	v.SetDefault("retrieval.search_k", 5)

	v.SetDefault("summarizer.enabled", true)
	v.SetDefault("summarizer.interval", "5m")
	v.SetDefault("summarizer.batch_size", 20)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("PITCHLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ResolveSecrets replaces the *_file indirections with the file contents.
// Inline values win only when no file is configured.
func (c *Config) ResolveSecrets() error {
	secret, err := secrets.Resolve(c.Auth.TokenSecret, c.Auth.TokenSecretFile)
	if err != nil {
		return fmt.Errorf("auth.token_secret: %w", err)
	}
	c.Auth.TokenSecret = secret

	apiKey, err := secrets.Resolve(c.LLM.APIKey, c.LLM.APIKeyFile)
	if err != nil {
		return fmt.Errorf("llm.api_key: %w", err)
	}
	c.LLM.APIKey = apiKey

	passphrase, err := secrets.Resolve(c.Crypto.Passphrase, c.Crypto.PassphraseFile)
	if err != nil {
		return fmt.Errorf("crypto.passphrase: %w", err)
	}
	c.Crypto.Passphrase = passphrase

	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
