package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the ren-backend service.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Chat      ChatConfig
	History   HistoryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	DSN string `envconfig:"DATABASE_DSN" required:"true"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI" required:"true"`
}

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	APIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	Model  string `envconfig:"GEMINI_MODEL" default:"gemma-3-27b-it"`
}

// ChatConfig holds turn-handling configuration.
//
// CarryOrder selects which timestamp picks the conversation whose context is
// carried forward when a new session starts after a closed one: "created_at"
// or "updated_at".
type ChatConfig struct {
	CarryOrder string        `envconfig:"CHAT_CARRY_ORDER" default:"created_at"`
	TurnTTL    time.Duration `envconfig:"CHAT_TURN_TTL" default:"90s"`
}

// HistoryConfig holds message-history pagination configuration.
type HistoryConfig struct {
	PageSize int `envconfig:"HISTORY_PAGE_SIZE" default:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	switch c.Chat.CarryOrder {
	case "created_at", "updated_at":
	default:
		return fmt.Errorf("invalid CHAT_CARRY_ORDER %q: must be created_at or updated_at", c.Chat.CarryOrder)
	}
	if c.Chat.TurnTTL <= 0 {
		return fmt.Errorf("CHAT_TURN_TTL must be positive")
	}
	if c.History.PageSize < 1 {
		return fmt.Errorf("HISTORY_PAGE_SIZE must be >= 1")
	}
	return nil
}
