// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address    string `mapstructure:"address"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	SessionTTL int    `mapstructure:"session_ttl"` // minutes
}

// GetSessionTTL returns the session expiry as a duration.
func (r RedisConfig) GetSessionTTL() time.Duration {
	return time.Duration(r.SessionTTL) * time.Minute
}

// --- AI backend ---
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
}

// GetTimeout returns the request timeout as a duration.
func (o OpenAIConfig) GetTimeout() time.Duration {
	return time.Duration(o.Timeout) * time.Millisecond
}

// --- Domain ---
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type AdvisorConfig struct {
	MinAITurns       int `mapstructure:"min_ai_turns"`
	ResultLimit      int `mapstructure:"result_limit"`
	SpeedRunSeconds  int `mapstructure:"speed_run_seconds"`
	EarlyBirdBefore  int `mapstructure:"early_bird_before"` // hour, exclusive
	NightOwlFrom     int `mapstructure:"night_owl_from"`    // hour, inclusive
}

type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
